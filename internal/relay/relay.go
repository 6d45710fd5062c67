// Package relay copies the latest live reading of every registered bin into
// the durable telemetry history, one record per bin per cycle.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/scheduler"
	"smartbin-backend/internal/threshold"
)

// Registry is the part of the bin registry the relay reads.
type Registry interface {
	ListBins(ctx context.Context) ([]models.Bin, error)
	GetCapacity(ctx context.Context, binID string) (float64, error)
}

// History is the append side of the telemetry history.
type History interface {
	AppendTelemetry(ctx context.Context, rec *models.TelemetryRecord) error
}

// Sink receives every record after it was written. Implementations must be
// safe for concurrent use.
type Sink interface {
	OnTelemetry(ctx context.Context, rec models.TelemetryRecord)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec models.TelemetryRecord)

func (f SinkFunc) OnTelemetry(ctx context.Context, rec models.TelemetryRecord) { f(ctx, rec) }

// Outcome of relaying one bin in a cycle.
type Outcome string

const (
	Written Outcome = "written"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// BinResult reports what happened to one bin.
type BinResult struct {
	BinID   string
	Outcome Outcome
	Reason  string
	Record  *models.TelemetryRecord
	Err     error
}

// CycleReport summarises one relay cycle.
type CycleReport struct {
	Started  time.Time
	Finished time.Time
	Results  []BinResult
	Written  int
	Skipped  int
	Failed   int
}

// Err returns a PartialBatchFailure when any bin failed.
func (r CycleReport) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return errors.Newf(errors.ErrPartialBatch, "%d of %d bins failed", r.Failed, len(r.Results))
}

// Options tune the relay loop.
type Options struct {
	Interval     time.Duration
	Workers      int
	StartupDelay time.Duration
}

// Relay is the telemetry relay.
type Relay struct {
	registry Registry
	live     livestore.Store
	history  History
	opts     Options
	logger   zerolog.Logger

	mu    sync.RWMutex
	sinks []Sink
}

// New constructs a Relay.
func New(registry Registry, live livestore.Store, history History, opts Options, logger zerolog.Logger) *Relay {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Relay{
		registry: registry,
		live:     live,
		history:  history,
		opts:     opts,
		logger:   logger.With().Str("component", "relay").Logger(),
	}
}

// AddSink registers a consumer of written records.
func (r *Relay) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// RunCycle relays every registered bin once. The returned error is set only
// when the registry cannot be listed; per-bin failures are in the report.
func (r *Relay) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{Started: time.Now().UTC()}

	bins, err := r.registry.ListBins(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("❌ failed to list registered bins")
		report.Finished = time.Now().UTC()
		return report, err
	}

	report.Results = make([]BinResult, len(bins))
	sem := make(chan struct{}, r.opts.Workers)
	var wg sync.WaitGroup

	for i, bin := range bins {
		wg.Add(1)
		go func(i int, binID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				report.Results[i] = BinResult{BinID: binID, Outcome: Failed, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			report.Results[i] = r.RelayBin(ctx, binID)
		}(i, bin.BinID)
	}
	wg.Wait()

	for _, res := range report.Results {
		switch res.Outcome {
		case Written:
			report.Written++
		case Skipped:
			report.Skipped++
		case Failed:
			report.Failed++
		}
	}
	report.Finished = time.Now().UTC()

	event := r.logger.Info()
	if report.Failed > 0 {
		event = r.logger.Warn()
	}
	event.
		Int("bins", len(bins)).
		Int("written", report.Written).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("took", report.Finished.Sub(report.Started)).
		Msg("relay cycle complete")

	return report, nil
}

// RelayBin moves the live reading of one bin into the history.
func (r *Relay) RelayBin(ctx context.Context, binID string) BinResult {
	log := r.logger.With().Str("bin_id", binID).Logger()

	reading, err := r.live.GetLatest(ctx, binID)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ live read failed")
		return BinResult{BinID: binID, Outcome: Failed, Err: err}
	}
	if reading == nil {
		log.Debug().Msg("no live reading")
		return BinResult{BinID: binID, Outcome: Skipped, Reason: "no live reading"}
	}

	capacity, err := r.registry.GetCapacity(ctx, binID)
	if errors.HasCode(err, errors.ErrNotFound) {
		log.Warn().Msg("⚠️ bin no longer registered, skipping insert")
		return BinResult{BinID: binID, Outcome: Skipped, Reason: "bin not registered"}
	}
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ capacity lookup failed")
		return BinResult{BinID: binID, Outcome: Failed, Err: err}
	}

	rec := BuildRecord(binID, capacity, *reading)
	if err := r.history.AppendTelemetry(ctx, &rec); err != nil {
		log.Error().Err(err).Msg("❌ telemetry insert failed")
		return BinResult{BinID: binID, Outcome: Failed, Err: err}
	}

	log.Debug().
		Int("fill_percentage", rec.FillPercentage).
		Bool("lid_locked", rec.IsLidLocked).
		Bool("alert", rec.AlertTriggered).
		Msg("telemetry relayed")

	r.mu.RLock()
	sinks := r.sinks
	r.mu.RUnlock()
	for _, s := range sinks {
		s.OnTelemetry(ctx, rec)
	}

	return BinResult{BinID: binID, Outcome: Written, Record: &rec}
}

// BuildRecord derives a history row from a live reading. Percentage, lock
// and alert are recomputed from the registry capacity; device-supplied
// values are ignored.
func BuildRecord(binID string, capacity float64, reading models.LiveReading) models.TelemetryRecord {
	eval := threshold.Evaluate(capacity, reading.LevelCM)

	level := 0.0
	if reading.LevelCM != nil {
		level = *reading.LevelCM
	}
	ts := reading.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return models.TelemetryRecord{
		BinID:          binID,
		Timestamp:      ts.Unix(),
		FillLevelCM:    level,
		FillPercentage: eval.Percentage,
		IsLidLocked:    eval.LidLocked,
		AlertTriggered: eval.SegregatorRequired,
		DelayMinutes:   0,
	}
}

// Run drives RunCycle at the configured interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sched, err := scheduler.New(scheduler.Options{
		Name:         "relay",
		Interval:     r.opts.Interval,
		StartupDelay: r.opts.StartupDelay,
		Immediate:    true,
	}, r.logger)
	if err != nil {
		return err
	}

	r.logger.Info().
		Dur("interval", r.opts.Interval).
		Int("workers", r.opts.Workers).
		Msg("🔁 telemetry relay started")

	return sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		report, err := r.RunCycle(ctx)
		if err != nil {
			return err
		}
		return report.Err()
	})
}
