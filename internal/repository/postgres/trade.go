package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"tradecraft/internal/domain/trade"
	"tradecraft/pkg/errors"
)

// Compile-time check
var _ trade.Repository = (*TradeRepository)(nil)

// TradeRepository implements trade.Repository using sqlx
type TradeRepository struct {
	db DBTX
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db DBTX) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create inserts a new trade
func (r *TradeRepository) Create(ctx context.Context, tr *trade.Trade) error {
	query := `
		INSERT INTO trades (
			id, workflow_id, signal_id,
			symbol, side,
			requested_qty, filled_qty, entry_price,
			leverage, take_profit_pct, stop_loss_pct,
			tp_order_id, sl_order_id, execution_error,
			status, position_status,
			close_price, close_price_approx, close_reason, pnl, closed_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW(), NOW()
		)`

	_, err := r.db.ExecContext(ctx, query,
		tr.ID, tr.WorkflowID, tr.SignalID,
		tr.Symbol, tr.Side,
		tr.RequestedQty, tr.FilledQty, tr.EntryPrice,
		tr.Leverage, tr.TakeProfitPct, tr.StopLossPct,
		tr.TakeProfitOrdID, tr.StopLossOrdID, tr.ExecutionError,
		tr.Status, tr.PositionStatus,
		tr.ClosePrice, tr.ClosePriceApprox, tr.CloseReason, tr.PnL, tr.ClosedAt,
	)

	return err
}

// Update persists the mutable lifecycle fields of a trade
func (r *TradeRepository) Update(ctx context.Context, tr *trade.Trade) error {
	query := `
		UPDATE trades SET
			filled_qty = $2,
			entry_price = $3,
			tp_order_id = $4,
			sl_order_id = $5,
			execution_error = $6,
			status = $7,
			position_status = $8,
			close_price = $9,
			close_price_approx = $10,
			close_reason = $11,
			pnl = $12,
			closed_at = $13,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		tr.ID, tr.FilledQty, tr.EntryPrice,
		tr.TakeProfitOrdID, tr.StopLossOrdID, tr.ExecutionError,
		tr.Status, tr.PositionStatus,
		tr.ClosePrice, tr.ClosePriceApprox, tr.CloseReason, tr.PnL, tr.ClosedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrap(errors.ErrNotFound, "trade not found")
	}

	return nil
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	var tr trade.Trade

	query := `SELECT * FROM trades WHERE id = $1`

	err := r.db.GetContext(ctx, &tr, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "trade not found")
	}
	if err != nil {
		return nil, err
	}

	return &tr, nil
}

// GetOpen retrieves all trades whose position is still open on our books
func (r *TradeRepository) GetOpen(ctx context.Context) ([]*trade.Trade, error) {
	var trades []*trade.Trade

	query := `
		SELECT * FROM trades
		WHERE position_status = 'open'
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &trades, query)
	if err != nil {
		return nil, err
	}

	return trades, nil
}
