package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/models"
)

// MessageSender is the part of the FCM client the notifier uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// AlertNotifier pushes an FCM topic message when a bin's lid locks. Only the
// transition from unlocked to locked notifies; a bin that stays full does not.
type AlertNotifier struct {
	sender MessageSender
	topic  string
	logger zerolog.Logger

	mu     sync.Mutex
	locked map[string]bool
}

// NewAlertNotifier creates a notifier publishing to topic.
func NewAlertNotifier(sender MessageSender, topic string, logger zerolog.Logger) *AlertNotifier {
	return &AlertNotifier{
		sender: sender,
		topic:  topic,
		logger: logger.With().Str("component", "fcm").Logger(),
		locked: make(map[string]bool),
	}
}

// OnTelemetry receives every relayed record.
func (n *AlertNotifier) OnTelemetry(ctx context.Context, rec models.TelemetryRecord) {
	n.mu.Lock()
	was := n.locked[rec.BinID]
	n.locked[rec.BinID] = rec.IsLidLocked
	n.mu.Unlock()

	if !rec.IsLidLocked || was {
		return
	}
	if err := n.SendLidLocked(ctx, rec); err != nil {
		n.logger.Error().Err(err).Str("bin_id", rec.BinID).Msg("❌ lid-lock notification failed")
	}
}

// SendLidLocked sends the lid-lock message for one record.
func (n *AlertNotifier) SendLidLocked(ctx context.Context, rec models.TelemetryRecord) error {
	message := &messaging.Message{
		Topic: n.topic,
		Notification: &messaging.Notification{
			Title: "Bin Full - Lid Locked",
			Body:  fmt.Sprintf("%s is %d%% full and needs collection.", rec.BinID, rec.FillPercentage),
		},
		Data: map[string]string{
			"type":            "lid_locked",
			"bin_id":          rec.BinID,
			"fill_percentage": strconv.Itoa(rec.FillPercentage),
			"segregator":      strconv.FormatBool(rec.AlertTriggered),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := n.sender.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending FCM message: %w", err)
	}

	n.logger.Info().Str("bin_id", rec.BinID).Str("message_id", response).Msg("✅ FCM notification sent successfully")
	return nil
}
