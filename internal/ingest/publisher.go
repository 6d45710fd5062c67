package ingest

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/models"
)

// Publisher sends readings the way a device would.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
}

// NewPublisher wraps a connected client.
func NewPublisher(client mqtt.Client, prefix string, qos int) *Publisher {
	return &Publisher{client: client, prefix: prefix, qos: byte(qos)}
}

// Publish sends one reading for binID.
func (p *Publisher) Publish(ctx context.Context, binID string, reading models.LiveReading) error {
	data, err := livestore.Marshal(reading)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	token := p.client.Publish(Topic(p.prefix, binID), p.qos, false, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return errors.Wrap(errors.ErrTimeout, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(errors.ErrConnection, fmt.Errorf("mqtt publish %s: %w", binID, err))
	}
	return nil
}
