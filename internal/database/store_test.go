package database

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	db, err := Connect(ctx, config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          ":memory:",
		QueryTimeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return NewStore(db, 5*time.Second)
}

func testBin(id string, capacity float64) models.Bin {
	return models.Bin{
		BinID:            id,
		Latitude:         17.43,
		Longitude:        78.41,
		SupervisorName:   "R. Kumar",
		LocationName:     "Depot",
		BinType:          "General",
		MaxCapacityCM:    capacity,
		InstallationDate: 1_700_000_000,
		CreatedAt:        1_700_000_000,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, Migrate(context.Background(), store.DB()))
}

func TestInsertAndGetBin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.InsertBin(ctx, testBin("BIN-001", 200)))

	bin, err := store.GetBin(ctx, "BIN-001")
	require.NoError(t, err)
	assert.Equal(t, "R. Kumar", bin.SupervisorName)
	assert.Equal(t, 200.0, bin.MaxCapacityCM)

	capacity, err := store.GetCapacity(ctx, "BIN-001")
	require.NoError(t, err)
	assert.Equal(t, 200.0, capacity)
}

func TestInsertBinDuplicateLeavesRegistryUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.InsertBin(ctx, testBin("BIN-001", 200)))

	dup := testBin("BIN-001", 120)
	dup.SupervisorName = "Someone Else"
	err := store.InsertBin(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrIntegrityViolation))

	bins, err := store.ListBins(ctx)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, "R. Kumar", bins[0].SupervisorName)
	assert.Equal(t, 200.0, bins[0].MaxCapacityCM)
}

func TestGetBinNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.GetBin(ctx, "BIN-404")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	_, err = store.GetCapacity(ctx, "BIN-404")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestListBinsOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []string{"BIN-003", "BIN-001", "BIN-002"} {
		require.NoError(t, store.InsertBin(ctx, testBin(id, 200)))
	}

	bins, err := store.ListBins(ctx)
	require.NoError(t, err)
	require.Len(t, bins, 3)
	assert.Equal(t, "BIN-001", bins[0].BinID)
	assert.Equal(t, "BIN-003", bins[2].BinID)
}

func TestTelemetryHistoryAndLatestAlert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.InsertBin(ctx, testBin("BIN-001", 200)))

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Unix()
	readings := []struct {
		offset int64
		pct    int
	}{
		{0, 50},
		{60, 92},
		{120, 95},
		{180, 40},
	}
	for _, r := range readings {
		rec := &models.TelemetryRecord{
			BinID:          "BIN-001",
			Timestamp:      base + r.offset,
			FillLevelCM:    200 - float64(r.pct)*2,
			FillPercentage: r.pct,
			IsLidLocked:    r.pct >= 90,
		}
		require.NoError(t, store.AppendTelemetry(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	alert, err := store.LatestAlertTime(ctx, "BIN-001", 90)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, base+120, alert.Unix())

	none, err := store.LatestAlertTime(ctx, "BIN-001", 99)
	require.NoError(t, err)
	assert.Nil(t, none)

	history, err := store.TelemetryHistory(ctx, "BIN-001", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, base+180, history[0].Timestamp)
	assert.Equal(t, 40, history[0].FillPercentage)
	assert.True(t, history[1].IsLidLocked)
}

func TestCollectionHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.InsertBin(ctx, testBin("BIN-001", 200)))

	alert := int64(1_700_000_000)
	require.NoError(t, store.AppendCollection(ctx, models.CollectionLogEntry{
		ID: "a", BinID: "BIN-001", CollectionTime: alert + 600, AlertTime: &alert,
		TimeToCollectMin: 10, IsOnTime: true, RewardIssued: true, CollectorID: "COL-A01",
	}))
	require.NoError(t, store.AppendCollection(ctx, models.CollectionLogEntry{
		ID: "b", BinID: "BIN-001", CollectionTime: alert + 1200, CollectorID: "COL-A01",
	}))

	entries, err := store.CollectionHistory(ctx, "BIN-001")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Nil(t, entries[0].AlertTime)
	require.NotNil(t, entries[1].AlertTime)
	assert.Equal(t, alert, *entries[1].AlertTime)
	assert.True(t, entries[1].RewardIssued)
}

func TestCollectionHistorySameSecondNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.InsertBin(ctx, testBin("BIN-001", 200)))

	at := int64(1_700_000_000)
	for _, id := range []string{"zzz", "mmm", "aaa"} {
		require.NoError(t, store.AppendCollection(ctx, models.CollectionLogEntry{
			ID: id, BinID: "BIN-001", CollectionTime: at, CollectorID: "COL-A01",
		}))
	}

	entries, err := store.CollectionHistory(ctx, "BIN-001")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "aaa", entries[0].ID)
	assert.Equal(t, "mmm", entries[1].ID)
	assert.Equal(t, "zzz", entries[2].ID)
}

func TestAppendCollectionDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.InsertBin(ctx, testBin("BIN-001", 200)))

	entry := models.CollectionLogEntry{ID: "c1", BinID: "BIN-001", CollectionTime: 1, CollectorID: "COL-A01"}
	require.NoError(t, store.AppendCollection(ctx, entry))
	err := store.AppendCollection(ctx, entry)
	assert.True(t, errors.HasCode(err, errors.ErrIntegrityViolation))
}

func TestInsertUserDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := models.User{ID: "u1", Username: "official", Password: "x", Name: "Official", Role: "operator", CreatedAt: 1}
	require.NoError(t, store.InsertUser(ctx, user))

	user.ID = "u2"
	err := store.InsertUser(ctx, user)
	assert.True(t, errors.HasCode(err, errors.ErrIntegrityViolation))

	got, err := store.GetUserByUsername(ctx, "official")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}
