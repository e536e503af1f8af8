package postgres

import (
	"context"

	"github.com/google/uuid"

	"tradecraft/internal/domain/signal"
	"tradecraft/pkg/errors"
)

// Compile-time check
var _ signal.Repository = (*SignalRepository)(nil)

// SignalRepository implements signal.Repository using sqlx
type SignalRepository struct {
	db DBTX
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db DBTX) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create inserts a new signal record
func (r *SignalRepository) Create(ctx context.Context, sig *signal.Signal) error {
	query := `
		INSERT INTO signals (
			id, workflow_id, kind, symbol, direction,
			confidence, reasoning, snapshot_summary,
			trade_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)`

	_, err := r.db.ExecContext(ctx, query,
		sig.ID, sig.WorkflowID, sig.Kind, sig.Symbol, sig.Direction,
		sig.Confidence, sig.Reasoning, sig.SnapshotSummary,
		sig.TradeID,
	)

	return err
}

// LinkTrade attaches the trade opened off this signal
func (r *SignalRepository) LinkTrade(ctx context.Context, id uuid.UUID, tradeID uuid.UUID) error {
	query := `UPDATE signals SET trade_id = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, tradeID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrap(errors.ErrNotFound, "signal not found")
	}

	return nil
}

// GetByWorkflow retrieves the most recent signals for a workflow
func (r *SignalRepository) GetByWorkflow(ctx context.Context, workflowID uuid.UUID, limit int) ([]*signal.Signal, error) {
	var signals []*signal.Signal

	query := `
		SELECT * FROM signals
		WHERE workflow_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &signals, query, workflowID, limit)
	if err != nil {
		return nil, err
	}

	return signals, nil
}
