package intel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/errors"
)

type stubFeed struct {
	txs []intel.WhaleTransaction
	err error
}

func (f *stubFeed) Fetch(ctx context.Context, currencies []string) ([]intel.WhaleTransaction, bool, error) {
	return f.txs, false, f.err
}

func flowTxs(inflowUSD, outflowUSD float64) []intel.WhaleTransaction {
	now := time.Now()
	return []intel.WhaleTransaction{
		{Symbol: "BTC", AmountUSD: inflowUSD, Direction: intel.NetFlowInflow, Timestamp: now},
		{Symbol: "BTC", AmountUSD: outflowUSD, Direction: intel.NetFlowOutflow, Timestamp: now.Add(-time.Minute)},
	}
}

func TestWhaleSensitivityThreshold(t *testing.T) {
	// $10M in vs $5M out: a 2.0x imbalance toward exchanges
	feed := &stubFeed{txs: flowTxs(10_000_000, 5_000_000)}
	c := NewWhaleCollector(feed)

	t.Run("low weight demands a stronger imbalance", func(t *testing.T) {
		// weight 25 -> threshold 1.3/0.5 = 2.6x, ratio 2.0 is not enough
		s := c.Collect(context.Background(), []string{"BTCUSDT"}, 25)
		assert.Equal(t, intel.NetFlowNeutral, s.NetFlow)
		assert.Equal(t, intel.TrendNeutral, s.Sentiment)
	})

	t.Run("high weight calls the same imbalance", func(t *testing.T) {
		// weight 75 -> threshold 1.3/1.5 = 0.867x, ratio 2.0 clears it
		s := c.Collect(context.Background(), []string{"BTCUSDT"}, 75)
		assert.Equal(t, intel.NetFlowInflow, s.NetFlow)
		assert.Equal(t, intel.TrendBearish, s.Sentiment, "inflow to exchanges reads as sell pressure")
	})
}

func TestWhaleOutflowIsBullish(t *testing.T) {
	feed := &stubFeed{txs: flowTxs(2_000_000, 12_000_000)}
	c := NewWhaleCollector(feed)

	s := c.Collect(context.Background(), []string{"BTCUSDT"}, 75)
	assert.Equal(t, intel.NetFlowOutflow, s.NetFlow)
	assert.Equal(t, intel.TrendBullish, s.Sentiment)
}

func TestWhaleCollectFeedFailure(t *testing.T) {
	feed := &stubFeed{err: errors.ErrExternal}
	c := NewWhaleCollector(feed)

	s := c.Collect(context.Background(), []string{"BTCUSDT"}, 50)
	require.NotNil(t, s)
	assert.True(t, s.Synthetic)
	assert.NotEmpty(t, s.RecentTransactions, "synthetic fallback keeps the source populated")
}

func TestWhaleRecentTransactionCount(t *testing.T) {
	txs := make([]intel.WhaleTransaction, 30)
	now := time.Now()
	for i := range txs {
		txs[i] = intel.WhaleTransaction{
			Symbol:    "BTC",
			AmountUSD: 1_000_000,
			Direction: intel.NetFlowInflow,
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
		}
	}
	c := NewWhaleCollector(&stubFeed{txs: txs})

	// ceil(w/100*20) floor 5
	assert.Len(t, c.Collect(context.Background(), nil, 25).RecentTransactions, 5)
	assert.Len(t, c.Collect(context.Background(), nil, 50).RecentTransactions, 10)
	assert.Len(t, c.Collect(context.Background(), nil, 100).RecentTransactions, 20)
}

func TestWhaleSummaryAggregates(t *testing.T) {
	feed := &stubFeed{txs: flowTxs(10_000_000, 5_000_000)}
	c := NewWhaleCollector(feed)

	s := c.Collect(context.Background(), []string{"BTCUSDT"}, 50)
	assert.Equal(t, 2, s.TotalTransactions)
	assert.InDelta(t, 15_000_000, s.TotalVolumeUSD, 1)
	require.NotNil(t, s.LargestTransaction)
	assert.InDelta(t, 10_000_000, s.LargestTransaction.AmountUSD, 1)
}

func TestClassifyTransfer(t *testing.T) {
	assert.Equal(t, intel.NetFlowInflow, classifyTransfer("unknown", "exchange"))
	assert.Equal(t, intel.NetFlowOutflow, classifyTransfer("exchange", "unknown"))
	assert.Equal(t, intel.NetFlowNeutral, classifyTransfer("exchange", "exchange"))
	assert.Equal(t, intel.NetFlowNeutral, classifyTransfer("unknown", "unknown"))
}

func TestBaseCurrencies(t *testing.T) {
	got := baseCurrencies([]string{"BTCUSDT", "ETHUSDT", "ethusdt", "SOLUSDC"})
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, got)
}
