package livestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

func TestNodeKey(t *testing.T) {
	assert.Equal(t, "dustbin-001", NodeKey("BIN-001"))
	assert.Equal(t, "dustbin-7", NodeKey("ZONE-A-7"))
	assert.Equal(t, "dustbin-PLAIN", NodeKey("PLAIN"))
}

func TestUnmarshalDevicePayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := `{"garbage_level_cm": 14, "fill_percentage": 93, "segregator_required": 0, "timestamp": "2024-05-01T10:15:30.123456"}`

	r, err := Unmarshal("BIN-001", []byte(doc), now)
	require.NoError(t, err)
	assert.Equal(t, "BIN-001", r.BinID)
	require.NotNil(t, r.LevelCM)
	assert.Equal(t, 14.0, *r.LevelCM)
	assert.Equal(t, 93, r.FillPercentage)
	assert.False(t, r.SegregatorRequired)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 15, 30, 123456000, time.UTC), r.Timestamp)
}

func TestUnmarshalDefaultsAndFlags(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r, err := Unmarshal("BIN-002", []byte(`{"fill_percentage": 99, "segregator_required": true}`), now)
	require.NoError(t, err)
	assert.Nil(t, r.LevelCM)
	assert.True(t, r.SegregatorRequired)
	assert.Equal(t, now, r.Timestamp)

	r, err = Unmarshal("BIN-002", []byte(`{"segregator_required": "1"}`), now)
	require.NoError(t, err)
	assert.True(t, r.SegregatorRequired)
}

func TestUnmarshalRejectsBadInput(t *testing.T) {
	now := time.Now()

	_, err := Unmarshal("BIN-003", []byte(`{"timestamp": "yesterday"}`), now)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = Unmarshal("BIN-003", []byte(`not json`), now)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = Unmarshal("BIN-003", []byte(`{"segregator_required": "maybe"}`), now)
	assert.Error(t, err)
}

func TestMarshalWireShape(t *testing.T) {
	level := 4.0
	data, err := Marshal(models.LiveReading{
		LevelCM:            &level,
		FillPercentage:     98,
		SegregatorRequired: true,
		Timestamp:          time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 4.0, doc["garbage_level_cm"])
	assert.Equal(t, 98.0, doc["fill_percentage"])
	assert.Equal(t, 1.0, doc["segregator_required"])
	assert.Equal(t, "2024-05-01T10:00:00Z", doc["timestamp"])
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 15, 30, 0, time.UTC)
	for _, s := range []string{
		"2024-05-01T10:15:30Z",
		"2024-05-01T15:45:30+05:30",
		"2024-05-01T10:15:30",
		"2024-05-01 10:15:30",
	} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}
}

func TestMemoryOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	r, err := m.GetLatest(ctx, "BIN-001")
	require.NoError(t, err)
	assert.Nil(t, r)

	level := 100.0
	require.NoError(t, m.SetLatest(ctx, "BIN-001", models.LiveReading{LevelCM: &level, FillPercentage: 50}))
	level = 20
	require.NoError(t, m.SetLatest(ctx, "BIN-001", models.LiveReading{LevelCM: &level, FillPercentage: 90}))

	r, err = m.GetLatest(ctx, "BIN-001")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "BIN-001", r.BinID)
	assert.Equal(t, 90, r.FillPercentage)
	assert.Equal(t, 20.0, *r.LevelCM)
}

type slowStore struct{}

func (slowStore) GetLatest(ctx context.Context, _ string) (*models.LiveReading, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowStore) SetLatest(ctx context.Context, _ string, _ models.LiveReading) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	s := WithTimeout(slowStore{}, 10*time.Millisecond)

	_, err := s.GetLatest(context.Background(), "BIN-001")
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))

	err = s.SetLatest(context.Background(), "BIN-001", models.LiveReading{})
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))

	m := NewMemory()
	assert.Same(t, m, WithTimeout(m, 0))
}
