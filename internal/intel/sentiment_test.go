package intel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/errors"
)

type stubFearGreed struct {
	index float64
	err   error
}

func (s *stubFearGreed) Index(ctx context.Context) (float64, error) { return s.index, s.err }

type stubMetrics struct {
	change float64
	err    error
}

func (s *stubMetrics) MarketCapChange24h(ctx context.Context) (float64, error) {
	return s.change, s.err
}

type stubSocial struct {
	texts []string
	err   error
}

func (s *stubSocial) Texts(ctx context.Context, symbols []string) ([]string, error) {
	return s.texts, s.err
}

func TestMomentumScore(t *testing.T) {
	assert.InDelta(t, 60, momentumScore(2), 1e-9)
	assert.InDelta(t, 30, momentumScore(-4), 1e-9)
	assert.InDelta(t, 100, momentumScore(25), 1e-9, "clamped above")
	assert.InDelta(t, 0, momentumScore(-25), 1e-9, "clamped below")
	assert.InDelta(t, 50, momentumScore(0), 1e-9)
}

func TestBlendComponentsRenormalizes(t *testing.T) {
	all := []sentimentComponent{
		{"fear_greed", 80, fearGreedBaseWeight},
		{"momentum", 60, momentumBaseWeight},
		{"social", 40, socialBaseWeight},
	}

	// 0.4*80 + 0.3*60 + 0.3*40 = 62, independent of the source weight
	// because the multiplier scales all components equally
	for _, w := range []int{25, 50, 100} {
		assert.InDelta(t, 62, blendComponents(all, w), 1e-9)
	}

	// With social missing the remaining weights renormalize to 4/7 and 3/7
	partial := all[:2]
	want := 80*(0.4/0.7) + 60*(0.3/0.7)
	assert.InDelta(t, want, blendComponents(partial, 50), 1e-9)

	// Single component passes through unchanged
	assert.InDelta(t, 40, blendComponents(all[2:], 75), 1e-9)
}

func TestBlendComponentsEmpty(t *testing.T) {
	assert.InDelta(t, 50, blendComponents(nil, 50), 1e-9)
}

func TestSentimentCollectAllSources(t *testing.T) {
	c := NewSentimentCollector(
		&stubFearGreed{index: 80},
		&stubMetrics{change: 2},
		&stubSocial{texts: []string{"huge rally, very bullish breakout"}},
	)

	s := c.Collect(context.Background(), []string{"BTCUSDT"}, 50)
	assert.ElementsMatch(t, []string{"fear_greed", "momentum", "social"}, s.Components)
	// fear_greed 80, momentum 60, social fully bullish -> 100
	assert.InDelta(t, 0.4*80+0.3*60+0.3*100, s.Score, 1e-9)
	assert.Equal(t, intel.TrendBullish, s.Trend)
	assert.Equal(t, 50, s.Weight)
}

func TestSentimentCollectDropsFailedSources(t *testing.T) {
	c := NewSentimentCollector(
		&stubFearGreed{err: errors.ErrExternal},
		&stubMetrics{change: -4},
		&stubSocial{err: errors.ErrUnavailable},
	)

	s := c.Collect(context.Background(), nil, 50)
	assert.Equal(t, []string{"momentum"}, s.Components)
	assert.InDelta(t, 30, s.Score, 1e-9)
	assert.Equal(t, intel.TrendBearish, s.Trend)
}

func TestSentimentCollectNoSources(t *testing.T) {
	c := NewSentimentCollector(nil, nil, nil)

	s := c.Collect(context.Background(), nil, 50)
	assert.Empty(t, s.Components)
	assert.InDelta(t, 50, s.Score, 1e-9)
	assert.Equal(t, intel.TrendNeutral, s.Trend)
}

func TestPolarity(t *testing.T) {
	assert.InDelta(t, 1, Polarity([]string{"bullish rally breakout"}), 1e-9)
	assert.InDelta(t, -1, Polarity([]string{"crash dump liquidation"}), 1e-9)
	assert.InDelta(t, 0, Polarity([]string{"bitcoin price unchanged today"}), 1e-9)
	assert.InDelta(t, 0, Polarity(nil), 1e-9)

	// Mixed text balances out
	assert.InDelta(t, 0, Polarity([]string{"rally then dump"}), 1e-9)

	// Batch averages per-text scores
	got := Polarity([]string{"bullish breakout", "no signal here"})
	assert.InDelta(t, 0.5, got, 1e-9)
}
