package reconciler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/domain/trade"
	"tradecraft/internal/events"
	"tradecraft/internal/metrics"
	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

// CloseNotifier pushes position-closed notifications. May be nil.
type CloseNotifier interface {
	NotifyTradeClosed(symbol, side, reason string, closePrice, pnl decimal.Decimal)
}

// Reconciler detects positions that closed on the exchange (TP/SL fill,
// liquidation, manual close) and settles the local Trade records: close
// price, close reason, PnL. Runs idempotently; a trade it closes once is
// never picked up again.
type Reconciler struct {
	exchange exchanges.Exchange
	trades   trade.Repository
	notifier CloseNotifier
	events   *events.Publisher
	log      *logger.Logger
}

// NewReconciler creates a position reconciler. notifier and events may
// be nil.
func NewReconciler(exchange exchanges.Exchange, trades trade.Repository, notifier CloseNotifier, publisher *events.Publisher) *Reconciler {
	return &Reconciler{
		exchange: exchange,
		trades:   trades,
		notifier: notifier,
		events:   publisher,
		log:      logger.Get().With("component", "reconciler"),
	}
}

// Run reconciles every locally-open trade against the exchange.
// Per-trade errors are logged and never abort the pass.
func (r *Reconciler) Run(ctx context.Context) error {
	open, err := r.trades.GetOpen(ctx)
	if err != nil {
		return errors.Wrap(err, "load open trades")
	}

	for _, tr := range open {
		if !tr.PositionStatus.IsOpen() {
			continue
		}
		if err := r.reconcileTrade(ctx, tr); err != nil {
			r.log.Errorw("Trade reconciliation failed",
				"trade_id", tr.ID, "symbol", tr.Symbol, "error", err)
		}
	}

	return nil
}

func (r *Reconciler) reconcileTrade(ctx context.Context, tr *trade.Trade) error {
	pos, err := r.exchange.GetPosition(ctx, tr.Symbol)
	if err != nil {
		return errors.Wrap(err, "fetch position")
	}

	switch {
	case pos.IsFlat():
		closePrice, approx := r.resolveClosePrice(ctx, tr, pos)
		return r.settleClose(ctx, tr, closePrice, approx, classifyClose(tr, closePrice))

	case directionFlipped(tr.Side, pos):
		// The exchange now holds the opposite side: our position was
		// closed and a new one opened. Settle ours at the mark price.
		closePrice, approx := r.resolveClosePrice(ctx, tr, pos)
		return r.settleClose(ctx, tr, closePrice, approx, trade.CloseReasonDirectionFlip)

	default:
		// Still open in our direction
		return nil
	}
}

func directionFlipped(side trade.Side, pos *exchanges.Position) bool {
	return (side == trade.SideLong && pos.IsShort()) ||
		(side == trade.SideShort && pos.IsLong())
}

// resolveClosePrice walks the fallback chain: position mark price,
// current ticker, entry price flagged approximate.
func (r *Reconciler) resolveClosePrice(ctx context.Context, tr *trade.Trade, pos *exchanges.Position) (decimal.Decimal, bool) {
	if pos != nil && pos.MarkPrice.IsPositive() {
		return pos.MarkPrice, false
	}

	if ticker, err := r.exchange.GetTicker(ctx, tr.Symbol); err == nil && ticker.LastPrice.IsPositive() {
		return ticker.LastPrice, false
	}

	return tr.EntryPrice, true
}

// liquidationSlack is how far past the stop-loss distance a losing close
// can land before a stop fill stops being a plausible explanation.
const liquidationSlack = 1.5

// classifyClose decides how the position ended from the realized price
// move relative to entry. A loss well beyond the stop distance cannot be
// a stop fill; the venue force-closed the position.
func classifyClose(tr *trade.Trade, closePrice decimal.Decimal) trade.CloseReason {
	if closePrice.IsZero() || tr.EntryPrice.IsZero() {
		return trade.CloseReasonManual
	}

	move := closePrice.Sub(tr.EntryPrice).Div(tr.EntryPrice)
	if tr.Side == trade.SideShort {
		move = move.Neg()
	}

	if move.GreaterThanOrEqual(decimal.Zero) {
		return trade.CloseReasonTakeProfit
	}

	lossPct := move.Neg().Mul(decimal.NewFromInt(100))
	if tr.StopLossPct > 0 && lossPct.GreaterThan(decimal.NewFromFloat(tr.StopLossPct*liquidationSlack)) {
		return trade.CloseReasonLiquidation
	}
	return trade.CloseReasonStopLoss
}

// settleClose computes PnL, cleans up surviving bracket legs and
// persists the final state.
func (r *Reconciler) settleClose(ctx context.Context, tr *trade.Trade, closePrice decimal.Decimal, approx bool, reason trade.CloseReason) error {
	now := time.Now().UTC()
	tr.PositionStatus = trade.PositionClosed
	if reason == trade.CloseReasonLiquidation {
		tr.PositionStatus = trade.PositionLiquidated
	}
	tr.ClosePrice = closePrice
	tr.ClosePriceApprox = approx
	tr.CloseReason = reason
	tr.PnL = trade.ComputePnL(tr.Side, tr.EntryPrice, closePrice, tr.FilledQty, tr.Leverage)
	tr.ClosedAt = &now

	r.cancelStaleBrackets(ctx, tr)

	if err := r.trades.Update(ctx, tr); err != nil {
		return errors.Wrap(err, "persist closed trade")
	}

	metrics.TradesClosed.WithLabelValues(tr.Symbol, string(tr.CloseReason)).Inc()
	metrics.PositionsOpen.Dec()

	r.events.Publish(ctx, events.KindPositionClosed, events.PositionClosed{
		TradeID:     tr.ID.String(),
		Symbol:      tr.Symbol,
		Side:        tr.Side.String(),
		CloseReason: string(tr.CloseReason),
		ClosePrice:  tr.ClosePrice.String(),
		PnL:         tr.PnL.String(),
		Approximate: tr.ClosePriceApprox,
	})
	if r.notifier != nil {
		r.notifier.NotifyTradeClosed(tr.Symbol, tr.Side.String(), string(tr.CloseReason), tr.ClosePrice, tr.PnL)
	}

	r.log.Infow("Position closed",
		"trade_id", tr.ID,
		"symbol", tr.Symbol,
		"reason", tr.CloseReason,
		"close_price", tr.ClosePrice,
		"pnl", tr.PnL,
		"approx", tr.ClosePriceApprox,
	)

	return nil
}

// cancelStaleBrackets cancels whichever bracket legs survived the close.
// Best-effort: the order may already be gone, which is the normal case
// for the leg that filled.
func (r *Reconciler) cancelStaleBrackets(ctx context.Context, tr *trade.Trade) {
	for _, orderID := range []*string{tr.TakeProfitOrdID, tr.StopLossOrdID} {
		if orderID == nil || *orderID == "" {
			continue
		}
		if err := r.exchange.CancelOrder(ctx, tr.Symbol, *orderID); err != nil {
			r.log.Debugw("Bracket cancel skipped",
				"trade_id", tr.ID, "order_id", *orderID, "error", err)
		}
	}
}
