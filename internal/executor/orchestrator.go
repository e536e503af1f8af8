package executor

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/decision"
	"tradecraft/internal/domain/signal"
	"tradecraft/internal/domain/trade"
	"tradecraft/internal/domain/workflow"
	"tradecraft/internal/events"
	"tradecraft/internal/metrics"
	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

// TradeNotifier pushes human-facing trade notifications. May be nil.
type TradeNotifier interface {
	NotifyTradeOpened(symbol, side string, qty, entryPrice decimal.Decimal, leverage int, confidence float64)
	NotifyExecutionFailure(symbol, side, reason string)
}

// Orchestrator drives an accepted decision through the exchange:
// gate, size, set leverage, market entry, re-read the actual position,
// arm reduce-only TP/SL brackets, persist the Trade and link its Signal.
// Allocation lines are processed sequentially so order sequences for
// different symbols never interleave against the shared balance.
type Orchestrator struct {
	exchange exchanges.Exchange
	trades   trade.Repository
	signals  signal.Repository
	sizer    *Sizer
	notifier TradeNotifier
	events   *events.Publisher
	log      *logger.Logger
}

// NewOrchestrator creates an execution orchestrator. notifier and events
// may be nil.
func NewOrchestrator(
	exchange exchanges.Exchange,
	trades trade.Repository,
	signals signal.Repository,
	sizer *Sizer,
	notifier TradeNotifier,
	publisher *events.Publisher,
) *Orchestrator {
	return &Orchestrator{
		exchange: exchange,
		trades:   trades,
		signals:  signals,
		sizer:    sizer,
		notifier: notifier,
		events:   publisher,
		log:      logger.Get().With("component", "executor"),
	}
}

// orderPlan is one normalized execution line, shared by both decision
// shapes.
type orderPlan struct {
	Symbol            string
	Signal            decision.Signal
	AllocationPercent float64
	Confidence        float64
	Leverage          int
	TakeProfitPct     float64
	StopLossPct       float64
}

// Execute runs every actionable line of the decision. Per-line failures
// are recorded on their Trade and never abort sibling lines. The balance
// was read once for this cycle; no re-reads happen mid-execution.
func (o *Orchestrator) Execute(
	ctx context.Context,
	wf *workflow.Workflow,
	dec *decision.Decision,
	profile decision.Profile,
	balance *exchanges.Balance,
	signalID *uuid.UUID,
) []*trade.Trade {
	var opened []*trade.Trade

	for _, plan := range o.plans(dec, profile) {
		tr := o.executeLine(ctx, wf, plan, profile, balance, signalID)
		if tr != nil {
			opened = append(opened, tr)
		}
	}

	return opened
}

// plans flattens the decision into execution lines. Single mode commits
// the strategy's full allocation budget to its one symbol.
func (o *Orchestrator) plans(dec *decision.Decision, profile decision.Profile) []orderPlan {
	switch dec.Kind {
	case decision.KindSingle:
		if dec.Single == nil {
			return nil
		}
		s := dec.Single
		return []orderPlan{{
			Symbol:            s.Symbol,
			Signal:            s.Signal,
			AllocationPercent: profile.MaxTotalAllocation,
			Confidence:        s.Confidence,
			Leverage:          s.Leverage,
			TakeProfitPct:     s.TakeProfitPercent,
			StopLossPct:       s.StopLossPercent,
		}}

	case decision.KindPortfolio:
		if dec.Portfolio == nil {
			return nil
		}
		plans := make([]orderPlan, 0, len(dec.Portfolio.Allocations))
		for _, a := range dec.Portfolio.Allocations {
			plans = append(plans, orderPlan{
				Symbol:            a.Symbol,
				Signal:            a.Signal,
				AllocationPercent: a.AllocationPercent,
				Confidence:        a.Confidence,
				Leverage:          a.Leverage,
				TakeProfitPct:     a.TakeProfitPercent,
				StopLossPct:       a.StopLossPercent,
			})
		}
		return plans
	}

	return nil
}

// executeLine runs the full state machine for one line. A nil return
// means the line was gated out or failed before a Trade record existed.
func (o *Orchestrator) executeLine(
	ctx context.Context,
	wf *workflow.Workflow,
	plan orderPlan,
	profile decision.Profile,
	balance *exchanges.Balance,
	signalID *uuid.UUID,
) *trade.Trade {
	log := o.log.With("workflow_id", wf.ID, "symbol", plan.Symbol)

	// Gate: expected, logged, non-error outcomes of a cautious strategy
	switch {
	case plan.Signal == decision.SignalHold:
		log.Infow("Skipping execution: hold signal")
		metrics.ExecutionSkips.WithLabelValues("hold").Inc()
		return nil
	case plan.AllocationPercent <= 0:
		log.Infow("Skipping execution: zero allocation")
		metrics.ExecutionSkips.WithLabelValues("zero_allocation").Inc()
		return nil
	case plan.Confidence < profile.MinConfidence:
		log.Infow("Skipping execution: confidence below threshold",
			"confidence", plan.Confidence, "threshold", profile.MinConfidence)
		metrics.ExecutionSkips.WithLabelValues("low_confidence").Inc()
		return nil
	}

	ticker, err := o.exchange.GetTicker(ctx, plan.Symbol)
	if err != nil {
		log.Errorw("Price fetch failed, skipping line", "error", err)
		return nil
	}

	filters, err := o.exchange.GetSymbolFilters(ctx, plan.Symbol)
	if err != nil {
		log.Warnw("Symbol filters unavailable, sizing without them", "error", err)
		filters = nil
	}

	qty, err := o.sizer.Quantity(balance, plan.AllocationPercent, plan.Leverage, ticker.LastPrice, filters)
	if err != nil {
		if errors.Is(err, errors.ErrBelowMinNotional) {
			log.Infow("Skipping execution: below minimum notional", "error", err)
			metrics.ExecutionSkips.WithLabelValues("below_minimum").Inc()
		} else {
			log.Errorw("Sizing failed, skipping line", "error", err)
		}
		return nil
	}

	side := orderSide(plan.Signal)

	// Best-effort: trading continues on whatever leverage is active
	if err := o.exchange.SetLeverage(ctx, plan.Symbol, plan.Leverage); err != nil {
		log.Warnw("Leverage set failed, continuing with current leverage",
			"requested", plan.Leverage, "error", err)
	}

	tr := &trade.Trade{
		ID:            uuid.New(),
		WorkflowID:    wf.ID,
		SignalID:      signalID,
		Symbol:        plan.Symbol,
		Side:          tradeSide(plan.Signal),
		RequestedQty:  qty,
		Leverage:      plan.Leverage,
		TakeProfitPct: plan.TakeProfitPct,
		StopLossPct:   plan.StopLossPct,
		Status:        trade.StatusPending,
	}

	entry, err := o.exchange.PlaceOrder(ctx, &exchanges.OrderRequest{
		Symbol:   plan.Symbol,
		Side:     side,
		Type:     exchanges.OrderTypeMarket,
		Quantity: qty,
	})
	if err != nil {
		tr.Status = trade.StatusFailed
		tr.ExecutionError = err.Error()
		o.persist(ctx, tr, signalID, log)

		log.Errorw("Entry order failed", "error", err)
		o.events.Publish(ctx, events.KindTradeFailed, events.TradeFailed{
			TradeID:    tr.ID.String(),
			WorkflowID: wf.ID.String(),
			Symbol:     tr.Symbol,
			Side:       tr.Side.String(),
			Error:      err.Error(),
		})
		if o.notifier != nil {
			o.notifier.NotifyExecutionFailure(tr.Symbol, tr.Side.String(), err.Error())
		}
		return tr
	}

	tr.Status = trade.StatusFilled
	tr.PositionStatus = trade.PositionOpen
	tr.FilledQty = entry.Filled
	tr.EntryPrice = entry.AvgFillPrice

	// The actual position is the source of truth for bracket sizing: the
	// venue may have netted the fill against an existing position.
	actualQty, actualEntry := o.actualPosition(ctx, plan.Symbol, entry, log)
	tr.FilledQty = actualQty
	if actualEntry.IsPositive() {
		tr.EntryPrice = actualEntry
	}

	o.armBrackets(ctx, tr, side, filters, log)

	o.persist(ctx, tr, signalID, log)

	metrics.TradesOpened.WithLabelValues(tr.Symbol, tr.Side.String()).Inc()
	metrics.PositionsOpen.Inc()

	o.events.Publish(ctx, events.KindTradeOpened, events.TradeOpened{
		TradeID:    tr.ID.String(),
		WorkflowID: wf.ID.String(),
		Symbol:     tr.Symbol,
		Side:       tr.Side.String(),
		Quantity:   tr.FilledQty.String(),
		EntryPrice: tr.EntryPrice.String(),
		Leverage:   tr.Leverage,
		Confidence: plan.Confidence,
	})
	if o.notifier != nil {
		o.notifier.NotifyTradeOpened(tr.Symbol, tr.Side.String(), tr.FilledQty, tr.EntryPrice, tr.Leverage, plan.Confidence)
	}

	log.Infow("Trade opened",
		"trade_id", tr.ID,
		"qty", tr.FilledQty,
		"entry", tr.EntryPrice,
		"leverage", tr.Leverage,
	)

	return tr
}

// actualPosition re-reads the exchange position after the entry fill.
// Falls back to the order's own fill figures when the read fails.
func (o *Orchestrator) actualPosition(ctx context.Context, symbol string, entry *exchanges.Order, log *logger.Logger) (qty, entryPrice decimal.Decimal) {
	pos, err := o.exchange.GetPosition(ctx, symbol)
	if err != nil || pos.IsFlat() {
		if err != nil {
			log.Warnw("Position re-read failed, using order fill figures", "error", err)
		}
		return entry.Filled, entry.AvgFillPrice
	}
	return pos.Size.Abs(), pos.EntryPrice
}

// armBrackets places the TP and SL legs independently. A failed leg
// leaves its order id nil and appends the error to the Trade; the
// position stays open either way, the reconciler picks it up.
func (o *Orchestrator) armBrackets(ctx context.Context, tr *trade.Trade, entrySide exchanges.OrderSide, filters *exchanges.SymbolFilters, log *logger.Logger) {
	tpPrice, slPrice := BracketPrices(entrySide, tr.EntryPrice, tr.TakeProfitPct, tr.StopLossPct, filters)
	closeSide := entrySide.Opposite()

	var legErrors errors.MultiError

	tpOrder, err := o.exchange.PlaceOrder(ctx, &exchanges.OrderRequest{
		Symbol:      tr.Symbol,
		Side:        closeSide,
		Type:        exchanges.OrderTypeLimit,
		Quantity:    tr.FilledQty,
		Price:       tpPrice,
		TimeInForce: exchanges.TimeInForceGTC,
		ReduceOnly:  true,
	})
	if err != nil {
		log.Errorw("Take-profit leg failed", "error", err)
		legErrors.Add(errors.Wrap(err, "tp"))
	} else {
		id := tpOrder.ID
		tr.TakeProfitOrdID = &id
	}

	slOrder, err := o.exchange.PlaceOrder(ctx, &exchanges.OrderRequest{
		Symbol:     tr.Symbol,
		Side:       closeSide,
		Type:       exchanges.OrderTypeStopMarket,
		Quantity:   tr.FilledQty,
		StopPrice:  slPrice,
		ReduceOnly: true,
	})
	if err != nil {
		log.Errorw("Stop-loss leg failed", "error", err)
		legErrors.Add(errors.Wrap(err, "sl"))
	} else {
		id := slOrder.ID
		tr.StopLossOrdID = &id
	}

	if err := legErrors.ToError(); err != nil {
		tr.ExecutionError = err.Error()
	}
}

func (o *Orchestrator) persist(ctx context.Context, tr *trade.Trade, signalID *uuid.UUID, log *logger.Logger) {
	if err := o.trades.Create(ctx, tr); err != nil {
		log.Errorw("Failed to persist trade", "trade_id", tr.ID, "error", err)
		return
	}
	if signalID != nil {
		if err := o.signals.LinkTrade(ctx, *signalID, tr.ID); err != nil {
			log.Warnw("Failed to link signal to trade", "signal_id", *signalID, "error", err)
		}
	}
}

func orderSide(s decision.Signal) exchanges.OrderSide {
	if s == decision.SignalShort {
		return exchanges.OrderSideSell
	}
	return exchanges.OrderSideBuy
}

func tradeSide(s decision.Signal) trade.Side {
	if s == decision.SignalShort {
		return trade.SideShort
	}
	return trade.SideLong
}
