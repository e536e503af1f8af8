package workflow

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for workflow data access
type Repository interface {
	Create(ctx context.Context, wf *Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*Workflow, error)
	GetActive(ctx context.Context) ([]*Workflow, error)
	UpdateLastRun(ctx context.Context, id uuid.UUID) error
}
