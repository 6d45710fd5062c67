package livestore

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

// Firebase keeps readings in the Realtime Database under
// /dustbin-<suffix>/latest, the layout the devices write to.
type Firebase struct {
	client *db.Client
	now    func() time.Time
}

// NewFirebase wraps a Realtime Database client.
func NewFirebase(client *db.Client) *Firebase {
	return &Firebase{client: client, now: time.Now}
}

func (f *Firebase) ref(binID string) *db.Ref {
	return f.client.NewRef(NodeKey(binID)).Child("latest")
}

func (f *Firebase) GetLatest(ctx context.Context, binID string) (*models.LiveReading, error) {
	var payload *Payload
	if err := f.ref(binID).Get(ctx, &payload); err != nil {
		return nil, errors.Wrap(errors.ErrConnection, fmt.Errorf("firebase read %s: %w", NodeKey(binID), err))
	}
	if payload == nil {
		return nil, nil
	}
	return Decode(binID, *payload, f.now())
}

func (f *Firebase) SetLatest(ctx context.Context, binID string, reading models.LiveReading) error {
	if err := f.ref(binID).Set(ctx, Encode(reading)); err != nil {
		return errors.Wrap(errors.ErrConnection, fmt.Errorf("firebase write %s: %w", NodeKey(binID), err))
	}
	return nil
}
