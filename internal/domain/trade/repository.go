package trade

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for trade data access
type Repository interface {
	Create(ctx context.Context, tr *Trade) error
	Update(ctx context.Context, tr *Trade) error
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)
	GetOpen(ctx context.Context) ([]*Trade, error)
}
