package database

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smartbin-backend/internal/errors"
)

func TestDefaultSeedBins(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	bins, err := DefaultSeedBins(now)
	require.NoError(t, err)
	require.Len(t, bins, 6)
	assert.Equal(t, "BIN-001", bins[0].BinID)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Unix(), bins[0].InstallationDate)
	for _, b := range bins {
		assert.Positive(t, b.MaxCapacityCM)
	}
}

func TestParseSeedBinsRejectsIncompleteRows(t *testing.T) {
	_, err := ParseSeedBins([]byte("bins:\n  - bin_id: BIN-009\n    latitude: 1\n"), time.Now())
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = ParseSeedBins([]byte("bins: [not: valid"), time.Now())
	assert.Error(t, err)
}

func TestSeedBinsSkipsPopulatedRegistry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bins, err := DefaultSeedBins(time.Now())
	require.NoError(t, err)

	require.NoError(t, SeedBins(ctx, store, bins, zerolog.Nop()))
	require.NoError(t, SeedBins(ctx, store, bins, zerolog.Nop()))

	count, err := store.CountBins(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(bins), count)
}

func TestSeedOperatorHashesPassword(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, SeedOperator(ctx, store, "official", "1234", zerolog.Nop()))
	require.NoError(t, SeedOperator(ctx, store, "official", "other", zerolog.Nop()))

	user, err := store.GetUserByUsername(ctx, "official")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("1234")))
}
