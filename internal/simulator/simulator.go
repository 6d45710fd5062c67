// Package simulator stands in for the bin sensors: every step it nudges each
// bin's garbage level and reports the reading like a device would.
package simulator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/scheduler"
	"smartbin-backend/internal/threshold"
)

// Level bounds in centimetres between sensor and waste.
const (
	MinLevelCM = 10
	MaxLevelCM = 200

	DefaultCapacityCM = 200
	DefaultInterval   = 5 * time.Second
)

// CapacityLookup reads a bin's configured depth.
type CapacityLookup interface {
	GetCapacity(ctx context.Context, binID string) (float64, error)
}

// Publisher forwards a reading to an external transport.
type Publisher interface {
	Publish(ctx context.Context, binID string, reading models.LiveReading) error
}

// Simulator produces device readings for a fixed set of bins.
type Simulator struct {
	bins        []string
	capacities  CapacityLookup
	live        livestore.Store
	publisher   Publisher
	fallbackCap float64
	interval    time.Duration
	now         func() time.Time
	logger      zerolog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	levels map[string]float64
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithPublisher also publishes every reading, e.g. over MQTT.
func WithPublisher(p Publisher) Option {
	return func(s *Simulator) { s.publisher = p }
}

// WithRand replaces the random source, for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// New builds a Simulator whose bins start at random levels. live may be nil
// when readings only go out through a publisher.
func New(cfg config.SimulatorConfig, capacities CapacityLookup, live livestore.Store, logger zerolog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		bins:        append([]string(nil), cfg.BinIDs...),
		capacities:  capacities,
		live:        live,
		fallbackCap: cfg.DefaultCapacityCM,
		interval:    cfg.Interval,
		now:         time.Now,
		logger:      logger.With().Str("component", "simulator").Logger(),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		levels:      make(map[string]float64, len(cfg.BinIDs)),
	}
	if s.fallbackCap <= 0 {
		s.fallbackCap = DefaultCapacityCM
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, id := range s.bins {
		s.levels[id] = float64(30 + s.rng.IntN(151))
	}
	return s
}

// Level returns the current simulated level of a bin.
func (s *Simulator) Level(binID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[binID]
}

// SetLevel overrides the level of a bin.
func (s *Simulator) SetLevel(binID string, level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[binID] = clampLevel(level)
}

// Step advances every bin once and reports the readings that were
// delivered. A failure for one bin does not affect the others.
func (s *Simulator) Step(ctx context.Context) []models.LiveReading {
	out := make([]models.LiveReading, 0, len(s.bins))
	for _, binID := range s.bins {
		reading := s.next(ctx, binID)
		log := s.logger.With().Str("bin_id", binID).Logger()

		delivered := false
		if s.live != nil {
			if err := s.live.SetLatest(ctx, binID, reading); err != nil {
				log.Error().Err(err).Msg("❌ live store write failed")
			} else {
				delivered = true
			}
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, binID, reading); err != nil {
				log.Error().Err(err).Msg("❌ publish failed")
			} else {
				delivered = true
			}
		}
		if !delivered {
			continue
		}

		log.Debug().
			Float64("level_cm", *reading.LevelCM).
			Int("fill_percentage", reading.FillPercentage).
			Bool("segregator_required", reading.SegregatorRequired).
			Msg("simulated reading pushed")
		out = append(out, reading)
	}
	return out
}

// Run steps every bin at the configured interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	sched, err := scheduler.New(scheduler.Options{
		Name:      "simulator",
		Interval:  s.interval,
		Immediate: true,
	}, s.logger)
	if err != nil {
		return err
	}

	s.logger.Info().Strs("bins", s.bins).Dur("interval", s.interval).Msg("🎲 device simulator started")
	return sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		readings := s.Step(ctx)
		if len(readings) < len(s.bins) {
			return errors.Newf(errors.ErrPartialBatch, "%d of %d readings delivered", len(readings), len(s.bins))
		}
		return nil
	})
}

func (s *Simulator) next(ctx context.Context, binID string) models.LiveReading {
	s.mu.Lock()
	// garbage rises by up to 5cm per step, occasionally settling by 1cm
	level := clampLevel(s.levels[binID] - float64(s.rng.IntN(7)-1))
	s.levels[binID] = level
	s.mu.Unlock()

	capacity := s.fallbackCap
	if s.capacities != nil {
		c, err := s.capacities.GetCapacity(ctx, binID)
		if err != nil {
			s.logger.Warn().Err(err).Str("bin_id", binID).Float64("capacity_cm", capacity).
				Msg("⚠️ capacity unavailable, using default")
		} else {
			capacity = c
		}
	}

	pct := threshold.FillPercentage(capacity, &level)
	return models.LiveReading{
		BinID:              binID,
		LevelCM:            &level,
		FillPercentage:     pct,
		SegregatorRequired: threshold.SegregatorRequired(pct),
		Timestamp:          s.now().UTC(),
	}
}

func clampLevel(v float64) float64 {
	return max(MinLevelCM, min(v, MaxLevelCM))
}
