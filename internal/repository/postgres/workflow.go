package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"tradecraft/internal/domain/workflow"
	"tradecraft/pkg/errors"
)

// Compile-time check
var _ workflow.Repository = (*WorkflowRepository)(nil)

// WorkflowRepository implements workflow.Repository using sqlx
type WorkflowRepository struct {
	db DBTX
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db DBTX) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create inserts a new workflow
func (r *WorkflowRepository) Create(ctx context.Context, wf *workflow.Workflow) error {
	query := `
		INSERT INTO workflows (
			id, name, symbols, mode, strategy,
			whale_enabled, whale_weight,
			sentiment_enabled, sentiment_weight,
			news_enabled, news_weight, news_categories,
			enabled, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)`

	_, err := r.db.ExecContext(ctx, query,
		wf.ID, wf.Name, wf.Symbols, wf.Mode, wf.Strategy,
		wf.WhaleEnabled, wf.WhaleWeight,
		wf.SentimentEnabled, wf.SentimentWeight,
		wf.NewsEnabled, wf.NewsWeight, wf.NewsCategories,
		wf.Enabled,
	)

	return err
}

// GetByID retrieves a workflow by ID
func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	var wf workflow.Workflow

	query := `SELECT * FROM workflows WHERE id = $1`

	err := r.db.GetContext(ctx, &wf, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "workflow not found")
	}
	if err != nil {
		return nil, err
	}

	return &wf, nil
}

// GetActive retrieves all enabled workflows, oldest last run first so a
// starved workflow catches up before a freshly served one.
func (r *WorkflowRepository) GetActive(ctx context.Context) ([]*workflow.Workflow, error) {
	var workflows []*workflow.Workflow

	query := `
		SELECT * FROM workflows
		WHERE enabled = TRUE
		ORDER BY last_run_at ASC NULLS FIRST`

	err := r.db.SelectContext(ctx, &workflows, query)
	if err != nil {
		return nil, err
	}

	return workflows, nil
}

// UpdateLastRun stamps the workflow after a completed cycle
func (r *WorkflowRepository) UpdateLastRun(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE workflows SET
			last_run_at = NOW(),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrap(errors.ErrNotFound, "workflow not found")
	}

	return nil
}
