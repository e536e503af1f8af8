package decision

import (
	"context"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/adapters/ai"
	"tradecraft/internal/adapters/config"
	"tradecraft/internal/domain/intel"
	"tradecraft/internal/domain/workflow"
	"tradecraft/pkg/errors"
)

type stubOracle struct {
	response string
	err      error
	prompts  []ai.InvokeRequest
}

func (o *stubOracle) Name() string { return "stub" }

func (o *stubOracle) Invoke(ctx context.Context, req ai.InvokeRequest) (string, error) {
	o.prompts = append(o.prompts, req)
	return o.response, o.err
}

func testProfiles() map[workflow.Strategy]Profile {
	return Profiles(config.WorkerConfig{
		ConservativeMinConfidence: 0.75,
		BalancedMinConfidence:     0.60,
		AggressiveMinConfidence:   0.50,
	})
}

func singleWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		Symbols:  pq.StringArray{"BTCUSDT", "ETHUSDT"},
		Mode:     workflow.ModeSingle,
		Strategy: workflow.StrategyBalanced,
	}
}

func testSnapshot() *intel.MarketSnapshot {
	return &intel.MarketSnapshot{
		Prices: map[string]intel.PriceQuote{
			"BTCUSDT": {Symbol: "BTCUSDT", Price: 50_000, Change24hPct: 1.2, Volume24h: 2_000_000},
			"ETHUSDT": {Symbol: "ETHUSDT", Price: 3_000, Change24hPct: -0.5, Volume24h: 900_000},
		},
		Whale: &intel.WhaleSummary{
			TotalTransactions: 4,
			TotalVolumeUSD:    20_000_000,
			NetFlow:           intel.NetFlowOutflow,
			Sentiment:         intel.TrendBullish,
			Weight:            75,
		},
	}
}

func TestDecideSingleHappyPath(t *testing.T) {
	oracle := &stubOracle{response: `{"signal":"LONG","symbol":"BTCUSDT","confidence":0.82,"leverage":5,"takeProfitPercent":4,"stopLossPercent":2,"reasoning":"outflow accumulation"}`}
	e := NewEngine(oracle, testProfiles())

	d := e.Decide(context.Background(), singleWorkflow(), testSnapshot(), nil)
	require.Equal(t, KindSingle, d.Kind)
	require.NotNil(t, d.Single)
	assert.Equal(t, SignalLong, d.Single.Signal)
	assert.Equal(t, "BTCUSDT", d.Single.Symbol)
	assert.InDelta(t, 0.82, d.Single.Confidence, 1e-9)
	assert.False(t, d.IsHold())
}

func TestDecideSingleMalformedResponse(t *testing.T) {
	oracle := &stubOracle{response: "not json at all"}
	e := NewEngine(oracle, testProfiles())

	d := e.Decide(context.Background(), singleWorkflow(), testSnapshot(), nil)
	require.Equal(t, KindSingle, d.Kind)
	require.NotNil(t, d.Single)
	assert.Equal(t, SignalHold, d.Single.Signal)
	assert.Zero(t, d.Single.Confidence)
	assert.Contains(t, d.Single.Reasoning, "failed")
	assert.True(t, d.IsHold())
}

func TestDecideSingleOracleFailure(t *testing.T) {
	oracle := &stubOracle{err: errors.ErrOracleUnavailable}
	e := NewEngine(oracle, testProfiles())

	d := e.Decide(context.Background(), singleWorkflow(), testSnapshot(), nil)
	require.NotNil(t, d.Single)
	assert.Equal(t, SignalHold, d.Single.Signal)
	assert.Zero(t, d.Single.Confidence)
	assert.Contains(t, d.Single.Reasoning, "failed")
}

func TestDecidePortfolioOracleFailure(t *testing.T) {
	oracle := &stubOracle{err: errors.ErrOracleUnavailable}
	e := NewEngine(oracle, testProfiles())

	wf := singleWorkflow()
	wf.Mode = workflow.ModePortfolio

	d := e.Decide(context.Background(), wf, testSnapshot(), nil)
	require.Equal(t, KindPortfolio, d.Kind)
	require.NotNil(t, d.Portfolio)
	assert.Empty(t, d.Portfolio.Allocations)
	assert.InDelta(t, 100, d.Portfolio.ReservePercent, 1e-9)
	assert.True(t, d.IsHold())
}

func TestDecidePromptCarriesPriorityLabels(t *testing.T) {
	oracle := &stubOracle{response: `{"signal":"HOLD"}`}
	e := NewEngine(oracle, testProfiles())

	e.Decide(context.Background(), singleWorkflow(), testSnapshot(), nil)
	require.Len(t, oracle.prompts, 1)

	prompt := oracle.prompts[0].Prompt
	assert.Contains(t, prompt, "[priority: HIGH]", "whale weight 75 labels HIGH")
	assert.Contains(t, prompt, "BTCUSDT")
	assert.Contains(t, prompt, "Strategy: balanced")
	assert.NotEmpty(t, oracle.prompts[0].System)
}

func TestDecidePromptFlagsUnavailablePrice(t *testing.T) {
	oracle := &stubOracle{response: `{"signal":"HOLD"}`}
	e := NewEngine(oracle, testProfiles())

	snap := testSnapshot()
	snap.Prices["ETHUSDT"] = intel.PriceQuote{Symbol: "ETHUSDT"}

	e.Decide(context.Background(), singleWorkflow(), snap, nil)
	require.Len(t, oracle.prompts, 1)
	assert.True(t, strings.Contains(oracle.prompts[0].Prompt, "price unavailable"))
}
