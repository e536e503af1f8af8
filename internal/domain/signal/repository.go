package signal

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for signal data access
type Repository interface {
	Create(ctx context.Context, sig *Signal) error
	LinkTrade(ctx context.Context, id uuid.UUID, tradeID uuid.UUID) error
	GetByWorkflow(ctx context.Context, workflowID uuid.UUID, limit int) ([]*Signal, error)
}
