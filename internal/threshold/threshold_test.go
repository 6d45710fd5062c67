package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func level(v float64) *float64 {
	return &v
}

func TestFillPercentageBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		capacity   float64
		level      *float64
		want       int
		locked     bool
		segregator bool
	}{
		{name: "empty bin", capacity: 200, level: level(200), want: 0},
		{name: "full bin", capacity: 200, level: level(0), want: 100, locked: true, segregator: true},
		{name: "lid lock boundary", capacity: 200, level: level(20), want: 90, locked: true},
		{name: "just below lid lock", capacity: 200, level: level(21), want: 89},
		{name: "segregator boundary", capacity: 200, level: level(4), want: 98, locked: true, segregator: true},
		{name: "just below segregator", capacity: 200, level: level(5), want: 97, locked: true},
		{name: "floors fractional", capacity: 200, level: level(19), want: 90, locked: true},
		{name: "over capacity clamps", capacity: 200, level: level(500), want: 0},
		{name: "negative level fails closed", capacity: 200, level: level(-3), want: 0},
		{name: "missing level fails closed", capacity: 200, level: nil, want: 0},
		{name: "zero capacity", capacity: 0, level: level(10), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FillPercentage(tt.capacity, tt.level)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.locked, LidLocked(got))
			assert.Equal(t, tt.segregator, SegregatorRequired(got))

			r := Evaluate(tt.capacity, tt.level)
			assert.Equal(t, Reading{Percentage: tt.want, LidLocked: tt.locked, SegregatorRequired: tt.segregator}, r)
		})
	}
}

func TestFillPercentageMonotonicAndBounded(t *testing.T) {
	for _, capacity := range []float64{1, 37.5, 120, 200} {
		prev := 101
		for l := -10.0; l <= capacity+10; l += 0.25 {
			got := FillPercentage(capacity, level(l))
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
			if l >= 0 {
				assert.LessOrEqual(t, got, prev, "capacity %v level %v", capacity, l)
				prev = got
			}
		}
	}
}

func TestCollectionDelayAndOnTime(t *testing.T) {
	alert := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	delay := CollectionDelay(alert, alert.Add(180*time.Minute))
	assert.Equal(t, 180, delay)
	assert.True(t, OnTime(delay))

	delay = CollectionDelay(alert, alert.Add(181*time.Minute))
	assert.Equal(t, 181, delay)
	assert.False(t, OnTime(delay))

	assert.Equal(t, 180, CollectionDelay(alert, alert.Add(180*time.Minute+59*time.Second)))
	assert.Equal(t, 0, CollectionDelay(alert, alert.Add(-30*time.Second)))
}
