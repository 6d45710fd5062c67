package scheduler

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbin-backend/internal/errors"
)

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(Options{Name: "relay"}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestRunKeepsGoingAfterFailedTick(t *testing.T) {
	s, err := New(Options{Interval: 10 * time.Millisecond, Immediate: true}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context, time.Time) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return stderrors.New("boom")
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRunStopsDuringStartupDelay(t *testing.T) {
	s, err := New(Options{Interval: time.Second, StartupDelay: time.Hour}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = s.Run(ctx, func(context.Context, time.Time) error {
		t.Fatal("tick must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNextTickAligned(t *testing.T) {
	s, err := New(Options{Interval: 10 * time.Second, AlignToStart: true}, zerolog.Nop())
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 37, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 40, 0, time.UTC), s.nextTick(now))
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC), s.bucketStart(now))

	onBoundary := time.Date(2024, 1, 1, 12, 0, 40, 0, time.UTC)
	assert.Equal(t, onBoundary.Add(10*time.Second), s.nextTick(onBoundary))
}
