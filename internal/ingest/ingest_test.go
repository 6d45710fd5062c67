package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/relay"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, "smartbin/BIN-001/latest", Topic("smartbin", "BIN-001"))
	assert.Equal(t, "smartbin/BIN-001/latest", Topic("smartbin/", "BIN-001"))
	assert.Equal(t, "smartbin/+/latest", SubscriptionTopic("smartbin"))

	id, ok := BinIDFromTopic("smartbin", "smartbin/BIN-007/latest")
	assert.True(t, ok)
	assert.Equal(t, "BIN-007", id)

	for _, topic := range []string{"other/BIN-007/latest", "smartbin/BIN-007/history", "smartbin//latest", "smartbin/a/b/latest"} {
		_, ok := BinIDFromTopic("smartbin", topic)
		assert.False(t, ok, topic)
	}
}

type recordingRelayer struct{ bins []string }

func (r *recordingRelayer) RelayBin(_ context.Context, binID string) relay.BinResult {
	r.bins = append(r.bins, binID)
	return relay.BinResult{BinID: binID, Outcome: relay.Written}
}

func TestHandleWritesLiveStoreAndRelays(t *testing.T) {
	ctx := context.Background()
	live := livestore.NewMemory()
	rel := &recordingRelayer{}
	s := NewSubscriber(nil, "smartbin", 0, live, rel, zerolog.Nop())

	s.Handle(ctx, "smartbin/BIN-003/latest",
		[]byte(`{"garbage_level_cm": 30, "fill_percentage": 85, "segregator_required": 0, "timestamp": "2024-05-01T10:00:00"}`))

	r, err := live.GetLatest(ctx, "BIN-003")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 30.0, *r.LevelCM)
	assert.Equal(t, []string{"BIN-003"}, rel.bins)
}

func TestHandleDropsMalformed(t *testing.T) {
	ctx := context.Background()
	live := livestore.NewMemory()
	rel := &recordingRelayer{}
	s := NewSubscriber(nil, "smartbin", 0, live, rel, zerolog.Nop())

	s.Handle(ctx, "smartbin/BIN-003/latest", []byte(`{broken`))
	s.Handle(ctx, "elsewhere/BIN-003/latest", []byte(`{}`))

	r, err := live.GetLatest(ctx, "BIN-003")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Empty(t, rel.bins)
}
