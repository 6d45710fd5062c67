// Package reconcile records physical collections and scores them against
// the most recent full-bin alert.
package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/threshold"
)

// DefaultCollectorID is used when neither the caller nor config names one.
const DefaultCollectorID = "COL-A01"

// Store is what reconciliation needs from the durable stores.
type Store interface {
	GetBin(ctx context.Context, binID string) (*models.Bin, error)
	LatestAlertTime(ctx context.Context, binID string, minPercent int) (*time.Time, error)
	AppendCollection(ctx context.Context, entry models.CollectionLogEntry) error
}

// Result is the outcome of scoring one collection.
type Result struct {
	DelayMinutes int
	OnTime       bool
	Reward       bool
}

// Evaluate scores a collection against the alert that preceded it. Without
// an alert the collection is neither on time nor rewarded.
func Evaluate(alert *time.Time, collection time.Time) Result {
	if alert == nil {
		return Result{}
	}
	delay := threshold.CollectionDelay(*alert, collection)
	onTime := threshold.OnTime(delay)
	return Result{DelayMinutes: delay, OnTime: onTime, Reward: onTime}
}

// Service is the collection reconciliation service.
type Service struct {
	store            Store
	defaultCollector string
	now              func() time.Time
	newID            func() string
	logger           zerolog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces uuid generation, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService constructs a Service.
func NewService(store Store, defaultCollector string, logger zerolog.Logger, opts ...Option) *Service {
	if defaultCollector == "" {
		defaultCollector = DefaultCollectorID
	}
	s := &Service{
		store:            store,
		defaultCollector: defaultCollector,
		now:              time.Now,
		newID:            func() string { return uuid.New().String() },
		logger:           logger.With().Str("component", "reconcile").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogCollection records that binID was emptied now and returns the stored
// entry. Every call appends a new entry.
func (s *Service) LogCollection(ctx context.Context, binID, collectorID string) (*models.CollectionLogEntry, error) {
	if binID == "" {
		return nil, errors.WithMessage(errors.ErrInvalidArgument, "Missing bin_id.")
	}
	if _, err := s.store.GetBin(ctx, binID); err != nil {
		return nil, err
	}
	if collectorID == "" {
		collectorID = s.defaultCollector
	}

	collection := s.now().UTC()
	alert, err := s.store.LatestAlertTime(ctx, binID, threshold.LidLockPercent)
	if err != nil {
		return nil, err
	}
	result := Evaluate(alert, collection)

	entry := models.CollectionLogEntry{
		ID:               s.newID(),
		BinID:            binID,
		CollectionTime:   collection.Unix(),
		TimeToCollectMin: result.DelayMinutes,
		IsOnTime:         result.OnTime,
		RewardIssued:     result.Reward,
		CollectorID:      collectorID,
	}
	if alert != nil {
		at := alert.Unix()
		entry.AlertTime = &at
	}

	if err := s.store.AppendCollection(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("bin_id", binID).
		Str("collector_id", collectorID).
		Bool("had_alert", alert != nil).
		Int("time_to_collect_min", result.DelayMinutes).
		Bool("reward_issued", result.Reward).
		Msg("🗑️ collection logged")

	return &entry, nil
}
