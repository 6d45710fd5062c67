package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/errors"
)

// TickFunc is invoked once per interval with the time the tick was due.
type TickFunc func(ctx context.Context, due time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	// Name labels log lines, e.g. "relay" or "simulator".
	Name         string
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
	// Immediate fires the first tick right after the startup delay
	// instead of waiting one full interval.
	Immediate bool
}

// Scheduler drives periodic background loops such as the relay cycle.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, errors.Newf(errors.ErrInvalidConfig, "%s interval must be positive", nameOr(opts.Name))
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Str("loop", nameOr(opts.Name)).Logger(),
	}, nil
}

// Run blocks, invoking tick at each interval until ctx is cancelled. A failed
// tick is logged and the loop keeps going.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.Immediate {
		s.fire(ctx, tick, time.Now().UTC())
	}

	next := s.nextTick(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextTick(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.fire(ctx, tick, s.bucketStart(next))
		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) fire(ctx context.Context, tick TickFunc, due time.Time) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug().Time("due", due).Msg("executing scheduled tick")
	if err := tick(ctx, due); err != nil {
		s.logger.Error().Err(err).Time("due", due).Msg("tick execution failed")
	}
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	bucket := now.Truncate(s.opts.Interval)
	if !bucket.After(now) {
		bucket = bucket.Add(s.opts.Interval)
	}
	return bucket
}

func (s *Scheduler) bucketStart(t time.Time) time.Time {
	if !s.opts.AlignToStart {
		return t
	}
	return t.Truncate(s.opts.Interval)
}

func nameOr(name string) string {
	if name == "" {
		return "scheduler"
	}
	return name
}
