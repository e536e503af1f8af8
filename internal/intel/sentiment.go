package intel

import (
	"context"
	"fmt"
	"strings"

	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/logger"
)

// Base blend weights for the three sentiment components. Each is scaled
// by the source weight multiplier, then the set is renormalized over the
// components that actually produced a score.
const (
	fearGreedBaseWeight = 0.4
	momentumBaseWeight  = 0.3
	socialBaseWeight    = 0.3
)

// FearGreedSource supplies the market fear/greed index (0..100).
type FearGreedSource interface {
	Index(ctx context.Context) (float64, error)
}

// GlobalMetricsSource supplies the 24h total market cap change percent.
type GlobalMetricsSource interface {
	MarketCapChange24h(ctx context.Context) (float64, error)
}

// SocialSource supplies raw social/news texts for the given symbols.
type SocialSource interface {
	Texts(ctx context.Context, symbols []string) ([]string, error)
}

// SentimentCollector blends fear/greed, market momentum and social text
// polarity into one 0..100 score. Unavailable components are dropped from
// both the numerator and the weight renormalization.
type SentimentCollector struct {
	fearGreed FearGreedSource
	metrics   GlobalMetricsSource
	social    SocialSource
	log       *logger.Logger
}

// NewSentimentCollector creates a market sentiment collector.
// Any source may be nil; it is then treated as permanently unavailable.
func NewSentimentCollector(fearGreed FearGreedSource, metrics GlobalMetricsSource, social SocialSource) *SentimentCollector {
	return &SentimentCollector{
		fearGreed: fearGreed,
		metrics:   metrics,
		social:    social,
		log:       logger.Get().With("component", "sentiment_collector"),
	}
}

type sentimentComponent struct {
	name       string
	score      float64
	baseWeight float64
}

// Collect gathers all available components and blends them. Never fails:
// with no components at all the score is a neutral 50.
func (c *SentimentCollector) Collect(ctx context.Context, symbols []string, weight int) *intel.SentimentSummary {
	weight = intel.ClampWeight(weight)

	var components []sentimentComponent

	if c.fearGreed != nil {
		if idx, err := c.fearGreed.Index(ctx); err != nil {
			c.log.Warnw("Fear/greed source failed", "error", err)
		} else {
			components = append(components, sentimentComponent{"fear_greed", idx, fearGreedBaseWeight})
		}
	}

	if c.metrics != nil {
		if change, err := c.metrics.MarketCapChange24h(ctx); err != nil {
			c.log.Warnw("Global metrics source failed", "error", err)
		} else {
			components = append(components, sentimentComponent{"momentum", momentumScore(change), momentumBaseWeight})
		}
	}

	if c.social != nil {
		if texts, err := c.social.Texts(ctx, symbols); err != nil {
			c.log.Warnw("Social source failed", "error", err)
		} else if len(texts) > 0 {
			polarity := Polarity(texts)
			components = append(components, sentimentComponent{"social", (polarity + 1) / 2 * 100, socialBaseWeight})
		}
	}

	score := blendComponents(components, weight)

	names := make([]string, 0, len(components))
	for _, comp := range components {
		names = append(names, comp.name)
	}

	summary := &intel.SentimentSummary{
		Score:      score,
		Trend:      intel.ScoreTrend(score),
		Summary:    describeSentiment(score, names),
		Components: names,
		Weight:     weight,
	}

	c.log.Debugw("Sentiment summary built",
		"score", score,
		"trend", summary.Trend,
		"components", names,
	)

	return summary
}

// momentumScore maps a 24h market cap change percent to 0..100:
// clamp(50 + change*5, 0, 100). A +2% day scores 60, a -4% day scores 30.
func momentumScore(change24hPct float64) float64 {
	score := 50 + change24hPct*5
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// blendComponents computes the weighted average over available components.
// Effective weights are base*multiplier renormalized to sum to 1, so the
// blend stays a valid 0..100 score at any source weight.
func blendComponents(components []sentimentComponent, weight int) float64 {
	if len(components) == 0 {
		return 50
	}

	mult := intel.Multiplier(weight)

	var weightSum float64
	for _, comp := range components {
		weightSum += comp.baseWeight * mult
	}

	var score float64
	for _, comp := range components {
		score += comp.score * (comp.baseWeight * mult / weightSum)
	}

	return score
}

func describeSentiment(score float64, components []string) string {
	var mood string
	switch {
	case score >= 75:
		mood = "strongly bullish"
	case score >= 60:
		mood = "bullish"
	case score > 40:
		mood = "neutral"
	case score > 25:
		mood = "bearish"
	default:
		mood = "strongly bearish"
	}

	if len(components) == 0 {
		return "no sentiment data available, defaulting to neutral"
	}
	return fmt.Sprintf("market sentiment is %s (%.0f/100, based on %s)", mood, score, strings.Join(components, ", "))
}
