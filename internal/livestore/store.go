// Package livestore holds the most recent raw reading of every bin.
//
// Devices (or the simulator) overwrite a bin's reading; the relay and the
// dashboard only ever read it. Backends are interchangeable behind Store.
package livestore

import (
	"context"
	"strings"
	"time"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

// Store is the live telemetry store.
type Store interface {
	// GetLatest returns the current reading, or nil when the bin never reported.
	GetLatest(ctx context.Context, binID string) (*models.LiveReading, error)
	// SetLatest overwrites the reading for the bin.
	SetLatest(ctx context.Context, binID string, reading models.LiveReading) error
}

// NodeKey maps a bin id onto its live node, e.g. BIN-001 -> dustbin-001.
func NodeKey(binID string) string {
	suffix := binID
	if i := strings.LastIndex(binID, "-"); i >= 0 {
		suffix = binID[i+1:]
	}
	return "dustbin-" + suffix
}

// timeoutStore bounds every call of the wrapped store.
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout wraps s so each operation fails with ErrTimeout after d.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{next: s, timeout: d}
}

func (t *timeoutStore) GetLatest(ctx context.Context, binID string) (*models.LiveReading, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	reading, err := t.next.GetLatest(ctx, binID)
	if err != nil {
		return nil, timeoutErr(ctx, err)
	}
	return reading, nil
}

func (t *timeoutStore) SetLatest(ctx context.Context, binID string, reading models.LiveReading) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.next.SetLatest(ctx, binID, reading); err != nil {
		return timeoutErr(ctx, err)
	}
	return nil
}

func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.HasCode(err, errors.ErrTimeout) {
		return errors.Wrap(errors.ErrTimeout, err)
	}
	return err
}
