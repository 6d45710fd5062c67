// Package ingest carries device readings over MQTT: devices (and the
// simulator) publish to <prefix>/<bin_id>/latest and the subscriber writes
// each message into the live store.
package ingest

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
)

const connectTimeout = 10 * time.Second

// NewClient connects to the configured broker.
func NewClient(cfg config.MQTTConfig, role string, logger zerolog.Logger) (mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "smartbin"
	}
	clientID = fmt.Sprintf("%s-%s-%d", clientID, role, time.Now().UnixNano())

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn().Err(err).Str("client_id", clientID).Msg("⚠️ mqtt connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Newf(errors.ErrTimeout, "mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(errors.ErrConnection, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err))
	}

	logger.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("📡 connected to MQTT broker")
	return client, nil
}

// Topic is where readings for binID are published.
func Topic(prefix, binID string) string {
	return fmt.Sprintf("%s/%s/latest", strings.TrimSuffix(prefix, "/"), binID)
}

// SubscriptionTopic matches the readings of every bin.
func SubscriptionTopic(prefix string) string {
	return Topic(prefix, "+")
}

// BinIDFromTopic extracts the bin id from a reading topic.
func BinIDFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if !ok {
		return "", false
	}
	binID, ok := strings.CutSuffix(rest, "/latest")
	if !ok || binID == "" || strings.Contains(binID, "/") {
		return "", false
	}
	return binID, true
}
