package intel

import (
	"context"
	"sort"

	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/logger"
)

// whaleSensitivityBase is divided by the weight multiplier to get the
// imbalance ratio required before a net flow direction is called.
// At weight 25 the dominant side must carry 2.6x the other side's volume;
// at weight 75 an imbalance of 0.87x (any majority) already counts.
const whaleSensitivityBase = 1.3

// WhaleFeed supplies recent large transfers for a set of base currencies.
type WhaleFeed interface {
	Fetch(ctx context.Context, currencies []string) ([]intel.WhaleTransaction, bool, error)
}

// WhaleCollector summarizes whale transfer activity. Inflow to exchanges
// reads as sell pressure (bearish), outflow as accumulation (bullish).
type WhaleCollector struct {
	feed WhaleFeed
	log  *logger.Logger
}

// NewWhaleCollector creates a whale activity collector
func NewWhaleCollector(feed WhaleFeed) *WhaleCollector {
	return &WhaleCollector{
		feed: feed,
		log:  logger.Get().With("component", "whale_collector"),
	}
}

// Collect fetches and summarizes whale transfers for the given symbols.
// Never returns an error: on feed failure the summary is built from
// synthetic fallback data and flagged as such.
func (c *WhaleCollector) Collect(ctx context.Context, symbols []string, weight int) *intel.WhaleSummary {
	weight = intel.ClampWeight(weight)

	currencies := baseCurrencies(symbols)
	txs, synthetic, err := c.feed.Fetch(ctx, currencies)
	if err != nil {
		c.log.Warnw("Whale feed failed, using synthetic data", "error", err)
		txs = syntheticTransactions(currencies)
		synthetic = true
	}

	summary := &intel.WhaleSummary{
		TotalTransactions: len(txs),
		NetFlow:           intel.NetFlowNeutral,
		Sentiment:         intel.TrendNeutral,
		Synthetic:         synthetic,
		Weight:            weight,
	}

	if len(txs) == 0 {
		return summary
	}

	var inflowUSD, outflowUSD float64
	var largest *intel.WhaleTransaction

	for i := range txs {
		tx := &txs[i]
		summary.TotalVolumeUSD += tx.AmountUSD

		switch tx.Direction {
		case intel.NetFlowInflow:
			inflowUSD += tx.AmountUSD
		case intel.NetFlowOutflow:
			outflowUSD += tx.AmountUSD
		}

		if largest == nil || tx.AmountUSD > largest.AmountUSD {
			largest = tx
		}
	}
	summary.LargestTransaction = largest

	// Higher weight lowers the imbalance ratio needed to call a direction
	threshold := whaleSensitivityBase / intel.Multiplier(weight)
	switch {
	case outflowUSD > 0 && inflowUSD > outflowUSD*threshold:
		summary.NetFlow = intel.NetFlowInflow
		summary.Sentiment = intel.TrendBearish
	case inflowUSD > 0 && outflowUSD > inflowUSD*threshold:
		summary.NetFlow = intel.NetFlowOutflow
		summary.Sentiment = intel.TrendBullish
	case inflowUSD == 0 && outflowUSD > 0:
		summary.NetFlow = intel.NetFlowOutflow
		summary.Sentiment = intel.TrendBullish
	case outflowUSD == 0 && inflowUSD > 0:
		summary.NetFlow = intel.NetFlowInflow
		summary.Sentiment = intel.TrendBearish
	}

	// Surface the most recent transactions, count scaled by weight
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})
	limit := intel.ScaledCount(weight, 20)
	if limit > len(txs) {
		limit = len(txs)
	}
	summary.RecentTransactions = txs[:limit]

	c.log.Debugw("Whale summary built",
		"transactions", summary.TotalTransactions,
		"volume_usd", summary.TotalVolumeUSD,
		"net_flow", summary.NetFlow,
		"threshold", threshold,
		"synthetic", synthetic,
	)

	return summary
}
