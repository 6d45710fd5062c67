package relay

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/models"
)

type fakeRegistry struct {
	bins    []models.Bin
	listErr error
	missing map[string]bool
}

func (f *fakeRegistry) ListBins(context.Context) ([]models.Bin, error) {
	return f.bins, f.listErr
}

func (f *fakeRegistry) GetCapacity(_ context.Context, binID string) (float64, error) {
	if f.missing[binID] {
		return 0, errors.New(errors.ErrNotFound)
	}
	for _, b := range f.bins {
		if b.BinID == binID {
			return b.MaxCapacityCM, nil
		}
	}
	return 0, errors.New(errors.ErrNotFound)
}

type fakeHistory struct {
	mu      sync.Mutex
	records []models.TelemetryRecord
	failFor string
	delay   time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeHistory) AppendTelemetry(_ context.Context, rec *models.TelemetryRecord) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if rec.BinID == f.failFor {
		return errors.New(errors.ErrQueryFailed)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

// flakyLive fails reads for one bin and delegates the rest.
type flakyLive struct {
	livestore.Store
	failFor string
}

func (f flakyLive) GetLatest(ctx context.Context, binID string) (*models.LiveReading, error) {
	if binID == f.failFor {
		return nil, errors.Wrap(errors.ErrConnection, stderrors.New("live store unreachable"))
	}
	return f.Store.GetLatest(ctx, binID)
}

func bins(ids ...string) []models.Bin {
	out := make([]models.Bin, len(ids))
	for i, id := range ids {
		out[i] = models.Bin{BinID: id, MaxCapacityCM: 200}
	}
	return out
}

func seed(t *testing.T, live livestore.Store, binID string, level float64) {
	t.Helper()
	require.NoError(t, live.SetLatest(context.Background(), binID, models.LiveReading{
		LevelCM:        &level,
		FillPercentage: 10,
		Timestamp:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}))
}

func TestRunCycleIsolatesFailingLiveRead(t *testing.T) {
	mem := livestore.NewMemory()
	for _, id := range []string{"BIN-001", "BIN-002", "BIN-003"} {
		seed(t, mem, id, 100)
	}
	history := &fakeHistory{}
	r := New(&fakeRegistry{bins: bins("BIN-001", "BIN-002", "BIN-003")},
		flakyLive{Store: mem, failFor: "BIN-002"}, history, Options{Workers: 3}, zerolog.Nop())

	report, err := r.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, Written, report.Results[0].Outcome)
	assert.Equal(t, Failed, report.Results[1].Outcome)
	assert.True(t, errors.HasCode(report.Results[1].Err, errors.ErrConnection))
	assert.Equal(t, Written, report.Results[2].Outcome)
	assert.True(t, errors.HasCode(report.Err(), errors.ErrPartialBatch))

	require.Len(t, history.records, 2)
	for _, rec := range history.records {
		assert.NotEqual(t, "BIN-002", rec.BinID)
	}
}

func TestRunCycleIsolatesFailingAppend(t *testing.T) {
	mem := livestore.NewMemory()
	seed(t, mem, "BIN-001", 100)
	seed(t, mem, "BIN-002", 100)
	history := &fakeHistory{failFor: "BIN-001"}
	r := New(&fakeRegistry{bins: bins("BIN-001", "BIN-002")}, mem, history, Options{Workers: 2}, zerolog.Nop())

	report, err := r.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed, report.Results[0].Outcome)
	assert.Equal(t, Written, report.Results[1].Outcome)
	require.Len(t, history.records, 1)
}

func TestRunCycleSkipsAbsentAndUnregistered(t *testing.T) {
	mem := livestore.NewMemory()
	seed(t, mem, "BIN-002", 100)
	history := &fakeHistory{}
	registry := &fakeRegistry{
		bins:    bins("BIN-001", "BIN-002"),
		missing: map[string]bool{"BIN-002": true},
	}
	r := New(registry, mem, history, Options{Workers: 2}, zerolog.Nop())

	report, err := r.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.NoError(t, report.Err())
	assert.Empty(t, history.records)
}

func TestRunCycleListFailureWritesNothing(t *testing.T) {
	history := &fakeHistory{}
	r := New(&fakeRegistry{listErr: errors.New(errors.ErrConnection)}, livestore.NewMemory(), history, Options{}, zerolog.Nop())

	_, err := r.RunCycle(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrConnection))
	assert.Empty(t, history.records)
}

func TestRunCycleRespectsWorkerBound(t *testing.T) {
	mem := livestore.NewMemory()
	ids := []string{"BIN-001", "BIN-002", "BIN-003", "BIN-004", "BIN-005", "BIN-006"}
	for _, id := range ids {
		seed(t, mem, id, 50)
	}
	history := &fakeHistory{delay: 20 * time.Millisecond}
	r := New(&fakeRegistry{bins: bins(ids...)}, mem, history, Options{Workers: 2}, zerolog.Nop())

	report, err := r.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(ids), report.Written)
	assert.LessOrEqual(t, history.peak.Load(), int32(2))
}

func TestBuildRecordRecomputesFromCapacity(t *testing.T) {
	level := 2.0
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := BuildRecord("BIN-001", 200, models.LiveReading{
		LevelCM:            &level,
		FillPercentage:     10,
		SegregatorRequired: false,
		Timestamp:          ts,
	})

	assert.Equal(t, 99, rec.FillPercentage)
	assert.True(t, rec.IsLidLocked)
	assert.True(t, rec.AlertTriggered)
	assert.Equal(t, 0, rec.DelayMinutes)
	assert.Equal(t, 2.0, rec.FillLevelCM)
	assert.Equal(t, ts.Unix(), rec.Timestamp)

	rec = BuildRecord("BIN-001", 200, models.LiveReading{FillPercentage: 95, SegregatorRequired: true, Timestamp: ts})
	assert.Equal(t, 0, rec.FillPercentage)
	assert.False(t, rec.IsLidLocked)
	assert.False(t, rec.AlertTriggered)
}

func TestSinksReceiveWrittenRecords(t *testing.T) {
	mem := livestore.NewMemory()
	seed(t, mem, "BIN-001", 10)
	r := New(&fakeRegistry{bins: bins("BIN-001", "BIN-002")}, mem, &fakeHistory{}, Options{Workers: 2}, zerolog.Nop())

	var mu sync.Mutex
	var got []models.TelemetryRecord
	r.AddSink(SinkFunc(func(_ context.Context, rec models.TelemetryRecord) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, rec)
	}))

	_, err := r.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BIN-001", got[0].BinID)
	assert.Equal(t, 95, got[0].FillPercentage)
}
