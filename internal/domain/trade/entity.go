package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is the lifecycle record of one executed (or attempted) order.
// Created by the execution orchestrator; once open, only the reconciler
// mutates it.
type Trade struct {
	ID         uuid.UUID  `db:"id"`
	WorkflowID uuid.UUID  `db:"workflow_id"`
	SignalID   *uuid.UUID `db:"signal_id"`

	Symbol string `db:"symbol"`
	Side   Side   `db:"side"`

	// Requested vs actually filled. Partial fills, rounding and
	// pre-existing positions mean these can diverge.
	RequestedQty decimal.Decimal `db:"requested_qty"`
	FilledQty    decimal.Decimal `db:"filled_qty"`
	EntryPrice   decimal.Decimal `db:"entry_price"`

	Leverage         int     `db:"leverage"`
	TakeProfitPct    float64 `db:"take_profit_pct"`
	StopLossPct      float64 `db:"stop_loss_pct"`
	TakeProfitOrdID  *string `db:"tp_order_id"`
	StopLossOrdID    *string `db:"sl_order_id"`
	ExecutionError   string  `db:"execution_error"`

	Status         Status         `db:"status"`
	PositionStatus PositionStatus `db:"position_status"`

	// Close metadata, filled in by the reconciler
	ClosePrice       decimal.Decimal `db:"close_price"`
	ClosePriceApprox bool            `db:"close_price_approx"`
	CloseReason      CloseReason     `db:"close_reason"`
	PnL              decimal.Decimal `db:"pnl"`
	ClosedAt         *time.Time      `db:"closed_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Side defines long or short
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Valid checks if side is valid
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// String returns string representation
func (s Side) String() string {
	return string(s)
}

// Status is the order placement outcome
type Status string

const (
	StatusPending Status = "pending"
	StatusFilled  Status = "filled"
	StatusFailed  Status = "failed"
)

// Valid checks if status is valid
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFilled, StatusFailed:
		return true
	}
	return false
}

// PositionStatus is the position lifecycle after a fill
type PositionStatus string

const (
	PositionNone       PositionStatus = ""
	PositionOpen       PositionStatus = "open"
	PositionClosed     PositionStatus = "closed"
	PositionLiquidated PositionStatus = "liquidated"
)

// IsOpen returns true if the position is still open on our books
func (s PositionStatus) IsOpen() bool {
	return s == PositionOpen
}

// CloseReason classifies how a position ended
type CloseReason string

const (
	CloseReasonTakeProfit    CloseReason = "take_profit"
	CloseReasonStopLoss      CloseReason = "stop_loss"
	CloseReasonDirectionFlip CloseReason = "direction_flip"
	CloseReasonLiquidation   CloseReason = "liquidation"
	CloseReasonManual        CloseReason = "manual"
)

// ComputePnL returns the signed leveraged PnL approximation for a closed
// position. Long: (close-entry)/entry * qty * leverage; short is inverted.
// This is a price-delta approximation, not an accounting ledger.
func ComputePnL(side Side, entry, close, qty decimal.Decimal, leverage int) decimal.Decimal {
	if entry.IsZero() || qty.IsZero() {
		return decimal.Zero
	}
	move := close.Sub(entry).Div(entry)
	if side == SideShort {
		move = move.Neg()
	}
	return move.Mul(qty).Mul(decimal.NewFromInt(int64(leverage)))
}
