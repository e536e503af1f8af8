package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapWeight(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want int
	}{
		{"in range int", 75, 75},
		{"lower bound", 25, 25},
		{"upper bound", 100, 100},
		{"below range snaps to default", 10, 50},
		{"above range snaps to default", 150, 50},
		{"float in range", 60.0, 60},
		{"non-numeric snaps to default", "high", 50},
		{"nil snaps to default", nil, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SnapWeight(tt.raw))
		})
	}
}

func TestClampWeight(t *testing.T) {
	assert.Equal(t, 25, ClampWeight(-100))
	assert.Equal(t, 25, ClampWeight(24))
	assert.Equal(t, 100, ClampWeight(101))
	assert.Equal(t, 100, ClampWeight(1000))

	// Identity inside the range
	for w := 25; w <= 100; w++ {
		assert.Equal(t, w, ClampWeight(w))
	}
}

func TestMultiplier(t *testing.T) {
	assert.InDelta(t, 0.5, Multiplier(25), 1e-9)
	assert.InDelta(t, 1.0, Multiplier(50), 1e-9)
	assert.InDelta(t, 1.5, Multiplier(75), 1e-9)
	assert.InDelta(t, 2.0, Multiplier(100), 1e-9)

	// Out-of-range input is clamped before scaling
	assert.InDelta(t, 0.5, Multiplier(0), 1e-9)
	assert.InDelta(t, 2.0, Multiplier(500), 1e-9)
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, PriorityLow, PriorityLabel(25))
	assert.Equal(t, PriorityLow, PriorityLabel(35))
	assert.Equal(t, PriorityMedium, PriorityLabel(36))
	assert.Equal(t, PriorityMedium, PriorityLabel(50))
	assert.Equal(t, PriorityMedium, PriorityLabel(65))
	assert.Equal(t, PriorityHigh, PriorityLabel(66))
	assert.Equal(t, PriorityHigh, PriorityLabel(100))
}

func TestScaledCount(t *testing.T) {
	// Whale transaction list, base 20
	assert.Equal(t, 5, ScaledCount(25, 20))
	assert.Equal(t, 10, ScaledCount(50, 20))
	assert.Equal(t, 15, ScaledCount(75, 20))
	assert.Equal(t, 20, ScaledCount(100, 20))

	// News cap, base 40
	assert.Equal(t, 10, ScaledCount(25, 40))
	assert.Equal(t, 20, ScaledCount(50, 40))
	assert.Equal(t, 40, ScaledCount(100, 40))
}

func TestScoreTrend(t *testing.T) {
	assert.Equal(t, TrendBullish, ScoreTrend(60))
	assert.Equal(t, TrendBullish, ScoreTrend(95))
	assert.Equal(t, TrendBearish, ScoreTrend(40))
	assert.Equal(t, TrendBearish, ScoreTrend(5))
	assert.Equal(t, TrendNeutral, ScoreTrend(50))
	assert.Equal(t, TrendNeutral, ScoreTrend(59.9))
	assert.Equal(t, TrendNeutral, ScoreTrend(40.1))
}
