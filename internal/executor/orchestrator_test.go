package executor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/decision"
	"tradecraft/internal/domain/signal"
	"tradecraft/internal/domain/trade"
	"tradecraft/internal/domain/workflow"
	"tradecraft/pkg/errors"
)

type scriptedExchange struct {
	entryErr  error
	tpErr     error
	slErr     error
	levErr    error
	position  *exchanges.Position
	placed    []*exchanges.OrderRequest
	leverages []int
}

func (e *scriptedExchange) Name() string { return "scripted" }

func (e *scriptedExchange) GetTicker(ctx context.Context, symbol string) (*exchanges.Ticker, error) {
	return &exchanges.Ticker{Symbol: symbol, LastPrice: dec("50000")}, nil
}

func (e *scriptedExchange) GetTickers(ctx context.Context, symbols []string) (map[string]*exchanges.Ticker, error) {
	return nil, nil
}

func (e *scriptedExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]exchanges.Kline, error) {
	return nil, nil
}

func (e *scriptedExchange) GetBalance(ctx context.Context) (*exchanges.Balance, error) {
	return usdt("10000"), nil
}

func (e *scriptedExchange) GetPositions(ctx context.Context) ([]exchanges.Position, error) {
	return nil, nil
}

func (e *scriptedExchange) GetPosition(ctx context.Context, symbol string) (*exchanges.Position, error) {
	if e.position != nil {
		return e.position, nil
	}
	return &exchanges.Position{Symbol: symbol}, nil
}

func (e *scriptedExchange) GetOpenOrders(ctx context.Context, symbol string) ([]exchanges.Order, error) {
	return nil, nil
}

func (e *scriptedExchange) PlaceOrder(ctx context.Context, req *exchanges.OrderRequest) (*exchanges.Order, error) {
	switch {
	case req.Type == exchanges.OrderTypeMarket && !req.ReduceOnly:
		if e.entryErr != nil {
			return nil, e.entryErr
		}
	case req.Type == exchanges.OrderTypeLimit:
		if e.tpErr != nil {
			return nil, e.tpErr
		}
	case req.Type == exchanges.OrderTypeStopMarket:
		if e.slErr != nil {
			return nil, e.slErr
		}
	}

	e.placed = append(e.placed, req)
	return &exchanges.Order{
		ID:           uuid.NewString(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		Type:         req.Type,
		Status:       exchanges.OrderStatusFilled,
		Filled:       req.Quantity,
		AvgFillPrice: dec("50000"),
	}, nil
}

func (e *scriptedExchange) CancelOrder(ctx context.Context, symbol, orderID string) error {
	return nil
}

func (e *scriptedExchange) ClosePosition(ctx context.Context, symbol string) error { return nil }

func (e *scriptedExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if e.levErr != nil {
		return e.levErr
	}
	e.leverages = append(e.leverages, leverage)
	return nil
}

func (e *scriptedExchange) GetSymbolFilters(ctx context.Context, symbol string) (*exchanges.SymbolFilters, error) {
	return btcFilters(), nil
}

type memTradeRepo struct {
	created []*trade.Trade
	updated []*trade.Trade
}

func (r *memTradeRepo) Create(ctx context.Context, tr *trade.Trade) error {
	r.created = append(r.created, tr)
	return nil
}

func (r *memTradeRepo) Update(ctx context.Context, tr *trade.Trade) error {
	r.updated = append(r.updated, tr)
	return nil
}

func (r *memTradeRepo) GetByID(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	return nil, errors.ErrNotFound
}

func (r *memTradeRepo) GetOpen(ctx context.Context) ([]*trade.Trade, error) {
	return r.created, nil
}

type memSignalRepo struct {
	linked map[uuid.UUID]uuid.UUID
}

func (r *memSignalRepo) Create(ctx context.Context, sig *signal.Signal) error { return nil }

func (r *memSignalRepo) LinkTrade(ctx context.Context, id, tradeID uuid.UUID) error {
	if r.linked == nil {
		r.linked = make(map[uuid.UUID]uuid.UUID)
	}
	r.linked[id] = tradeID
	return nil
}

func (r *memSignalRepo) GetByWorkflow(ctx context.Context, workflowID uuid.UUID, limit int) ([]*signal.Signal, error) {
	return nil, nil
}

func balancedProfile() decision.Profile {
	return decision.Profile{
		Strategy:           workflow.StrategyBalanced,
		MinConfidence:      0.60,
		MaxTotalAllocation: 80,
	}
}

func conservativeProfile() decision.Profile {
	return decision.Profile{
		Strategy:           workflow.StrategyConservative,
		MinConfidence:      0.75,
		MaxTotalAllocation: 50,
	}
}

func longDecision(confidence float64) *decision.Decision {
	return &decision.Decision{
		Kind: decision.KindSingle,
		Single: &decision.SingleSignal{
			Signal:            decision.SignalLong,
			Symbol:            "BTCUSDT",
			Confidence:        confidence,
			Leverage:          5,
			TakeProfitPercent: 4,
			StopLossPercent:   2,
		},
	}
}

func newHarness(ex *scriptedExchange) (*Orchestrator, *memTradeRepo, *memSignalRepo) {
	trades := &memTradeRepo{}
	signals := &memSignalRepo{}
	o := NewOrchestrator(ex, trades, signals, NewSizer(95, 5), nil, nil)
	return o, trades, signals
}

func execWorkflow() *workflow.Workflow {
	return &workflow.Workflow{ID: uuid.New(), Strategy: workflow.StrategyBalanced}
}

func TestExecuteHappyPath(t *testing.T) {
	ex := &scriptedExchange{}
	o, trades, signals := newHarness(ex)
	sigID := uuid.New()

	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.8), balancedProfile(), usdt("10000"), &sigID)
	require.Len(t, opened, 1)

	tr := opened[0]
	assert.Equal(t, trade.StatusFilled, tr.Status)
	assert.Equal(t, trade.PositionOpen, tr.PositionStatus)
	assert.Equal(t, trade.SideLong, tr.Side)
	require.NotNil(t, tr.TakeProfitOrdID)
	require.NotNil(t, tr.StopLossOrdID)
	assert.Empty(t, tr.ExecutionError)

	// Entry plus both bracket legs
	require.Len(t, ex.placed, 3)
	assert.Equal(t, exchanges.OrderTypeMarket, ex.placed[0].Type)
	assert.Equal(t, exchanges.OrderTypeLimit, ex.placed[1].Type)
	assert.True(t, ex.placed[1].ReduceOnly)
	assert.Equal(t, exchanges.OrderTypeStopMarket, ex.placed[2].Type)
	assert.True(t, ex.placed[2].ReduceOnly)

	// Bracket legs close the position: opposite side of the entry
	assert.Equal(t, exchanges.OrderSideBuy, ex.placed[0].Side)
	assert.Equal(t, exchanges.OrderSideSell, ex.placed[1].Side)

	require.Len(t, trades.created, 1)
	assert.Equal(t, tr.ID, signals.linked[sigID])
	assert.Equal(t, []int{5}, ex.leverages)
}

func TestExecuteConfidenceGate(t *testing.T) {
	ex := &scriptedExchange{}
	o, trades, _ := newHarness(ex)

	// 0.7 confidence fails the conservative 0.75 floor
	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.7), conservativeProfile(), usdt("10000"), nil)
	assert.Empty(t, opened)
	assert.Empty(t, ex.placed, "no orders on a gated line")
	assert.Empty(t, trades.created, "no trade record on a gated line")
}

func TestExecuteHoldGate(t *testing.T) {
	ex := &scriptedExchange{}
	o, trades, _ := newHarness(ex)

	d := longDecision(0.9)
	d.Single.Signal = decision.SignalHold

	opened := o.Execute(context.Background(), execWorkflow(), d, balancedProfile(), usdt("10000"), nil)
	assert.Empty(t, opened)
	assert.Empty(t, ex.placed)
	assert.Empty(t, trades.created)
}

func TestExecuteEntryFailure(t *testing.T) {
	ex := &scriptedExchange{entryErr: errors.ErrOrderRejected}
	o, trades, _ := newHarness(ex)

	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.8), balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 1)

	tr := opened[0]
	assert.Equal(t, trade.StatusFailed, tr.Status)
	assert.NotEmpty(t, tr.ExecutionError)
	assert.Nil(t, tr.TakeProfitOrdID, "no brackets after a failed entry")
	assert.Nil(t, tr.StopLossOrdID)
	assert.Empty(t, ex.placed, "entry rejected, bracket legs never attempted")
	require.Len(t, trades.created, 1)
}

func TestExecuteBracketPartialFailure(t *testing.T) {
	ex := &scriptedExchange{tpErr: errors.ErrOrderRejected}
	o, trades, _ := newHarness(ex)

	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.8), balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 1)

	tr := opened[0]
	assert.Equal(t, trade.StatusFilled, tr.Status)
	assert.Equal(t, trade.PositionOpen, tr.PositionStatus, "position stays open with a missing leg")
	assert.Nil(t, tr.TakeProfitOrdID)
	require.NotNil(t, tr.StopLossOrdID, "legs are independent")
	assert.Contains(t, tr.ExecutionError, "tp:")
	require.Len(t, trades.created, 1)
}

func TestExecuteBothBracketLegsFail(t *testing.T) {
	ex := &scriptedExchange{tpErr: errors.ErrOrderRejected, slErr: errors.ErrRateLimitExceeded}
	o, _, _ := newHarness(ex)

	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.8), balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 1)

	tr := opened[0]
	assert.Equal(t, trade.PositionOpen, tr.PositionStatus)
	assert.Nil(t, tr.TakeProfitOrdID)
	assert.Nil(t, tr.StopLossOrdID)

	// Both leg failures survive in the recorded error
	assert.Contains(t, tr.ExecutionError, "tp: "+errors.ErrOrderRejected.Error())
	assert.Contains(t, tr.ExecutionError, "sl: "+errors.ErrRateLimitExceeded.Error())
}

func TestExecuteLeverageFailureIsNonFatal(t *testing.T) {
	ex := &scriptedExchange{levErr: errors.ErrExchangeUnavailable}
	o, _, _ := newHarness(ex)

	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.8), balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 1)
	assert.Equal(t, trade.StatusFilled, opened[0].Status)
}

func TestExecuteUsesActualPositionForBrackets(t *testing.T) {
	// The venue netted the fill down to 0.08 at a different entry price
	ex := &scriptedExchange{position: &exchanges.Position{
		Symbol:     "BTCUSDT",
		Size:       dec("0.08"),
		EntryPrice: dec("50100"),
	}}
	o, _, _ := newHarness(ex)

	opened := o.Execute(context.Background(), execWorkflow(), longDecision(0.8), balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 1)

	tr := opened[0]
	assert.True(t, tr.FilledQty.Equal(dec("0.08")))
	assert.True(t, tr.EntryPrice.Equal(dec("50100")))

	require.Len(t, ex.placed, 3)
	assert.True(t, ex.placed[1].Quantity.Equal(dec("0.08")), "brackets sized to the actual position")
}

func TestExecutePortfolioSequential(t *testing.T) {
	ex := &scriptedExchange{}
	o, trades, _ := newHarness(ex)

	d := &decision.Decision{
		Kind: decision.KindPortfolio,
		Portfolio: &decision.AllocationDecision{
			Allocations: []decision.Allocation{
				{Symbol: "BTCUSDT", Signal: decision.SignalLong, AllocationPercent: 30, Confidence: 0.8, Leverage: 3, TakeProfitPercent: 4, StopLossPercent: 2},
				{Symbol: "ETHUSDT", Signal: decision.SignalShort, AllocationPercent: 20, Confidence: 0.7, Leverage: 2, TakeProfitPercent: 4, StopLossPercent: 2},
				{Symbol: "SOLUSDT", Signal: decision.SignalHold, AllocationPercent: 0, Confidence: 0.9},
			},
		},
	}

	opened := o.Execute(context.Background(), execWorkflow(), d, balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 2, "hold line skipped")
	assert.Equal(t, "BTCUSDT", opened[0].Symbol)
	assert.Equal(t, trade.SideShort, opened[1].Side)
	assert.Len(t, trades.created, 2)
}

func TestExecuteEntryFailureDoesNotAbortSiblings(t *testing.T) {
	// All entries rejected: every line still produces its own failed Trade
	ex := &scriptedExchange{entryErr: errors.ErrOrderRejected}
	o, trades, _ := newHarness(ex)

	d := &decision.Decision{
		Kind: decision.KindPortfolio,
		Portfolio: &decision.AllocationDecision{
			Allocations: []decision.Allocation{
				{Symbol: "BTCUSDT", Signal: decision.SignalLong, AllocationPercent: 30, Confidence: 0.8, Leverage: 3, TakeProfitPercent: 4, StopLossPercent: 2},
				{Symbol: "ETHUSDT", Signal: decision.SignalLong, AllocationPercent: 20, Confidence: 0.8, Leverage: 3, TakeProfitPercent: 4, StopLossPercent: 2},
			},
		},
	}

	opened := o.Execute(context.Background(), execWorkflow(), d, balancedProfile(), usdt("10000"), nil)
	require.Len(t, opened, 2)
	assert.Equal(t, trade.StatusFailed, opened[0].Status)
	assert.Equal(t, trade.StatusFailed, opened[1].Status)
	assert.Len(t, trades.created, 2)
}
