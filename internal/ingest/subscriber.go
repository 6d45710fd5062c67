package ingest

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/relay"
)

// Relayer relays a single bin right after its reading arrives.
type Relayer interface {
	RelayBin(ctx context.Context, binID string) relay.BinResult
}

// Subscriber writes every MQTT reading into the live store.
type Subscriber struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	live    livestore.Store
	relayer Relayer
	now     func() time.Time
	logger  zerolog.Logger
}

// NewSubscriber builds a Subscriber. relayer may be nil.
func NewSubscriber(client mqtt.Client, prefix string, qos int, live livestore.Store, relayer Relayer, logger zerolog.Logger) *Subscriber {
	return &Subscriber{
		client:  client,
		prefix:  prefix,
		qos:     byte(qos),
		live:    live,
		relayer: relayer,
		now:     time.Now,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// Start subscribes and returns once the broker acknowledged. Messages are
// handled until ctx is cancelled, then the subscription is dropped.
func (s *Subscriber) Start(ctx context.Context) error {
	topic := SubscriptionTopic(s.prefix)
	token := s.client.Subscribe(topic, s.qos, func(_ mqtt.Client, msg mqtt.Message) {
		if ctx.Err() != nil {
			return
		}
		s.Handle(ctx, msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return errors.Newf(errors.ErrTimeout, "mqtt subscribe %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(errors.ErrConnection, fmt.Errorf("mqtt subscribe %s: %w", topic, err))
	}

	s.logger.Info().Str("topic", topic).Msg("📥 subscribed to device readings")

	go func() {
		<-ctx.Done()
		s.client.Unsubscribe(topic).WaitTimeout(time.Second)
	}()
	return nil
}

// Handle processes one message. Malformed messages are logged and dropped.
func (s *Subscriber) Handle(ctx context.Context, topic string, payload []byte) {
	binID, ok := BinIDFromTopic(s.prefix, topic)
	if !ok {
		s.logger.Warn().Str("topic", topic).Msg("⚠️ unexpected topic, dropping message")
		return
	}
	log := s.logger.With().Str("bin_id", binID).Logger()

	reading, err := livestore.Unmarshal(binID, payload, s.now())
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ malformed reading, dropping message")
		return
	}

	if err := s.live.SetLatest(ctx, binID, *reading); err != nil {
		log.Error().Err(err).Msg("❌ live store write failed")
		return
	}

	if s.relayer != nil {
		res := s.relayer.RelayBin(ctx, binID)
		if res.Outcome == relay.Failed {
			log.Warn().Err(res.Err).Msg("⚠️ immediate relay failed")
		}
	}
}
