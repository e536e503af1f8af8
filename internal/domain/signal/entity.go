package signal

import (
	"time"

	"github.com/google/uuid"
)

// Signal is a write-once audit record of one decision engine invocation.
// It captures what the oracle saw (summarized) and what it answered,
// independent of whether a trade was ultimately placed.
type Signal struct {
	ID         uuid.UUID `db:"id"`
	WorkflowID uuid.UUID `db:"workflow_id"`

	Kind       string  `db:"kind"` // single, portfolio
	Symbol     string  `db:"symbol"`
	Direction  string  `db:"direction"` // LONG, SHORT, HOLD
	Confidence float64 `db:"confidence"`
	Reasoning  string  `db:"reasoning"`

	// JSON summary of the market snapshot the decision was based on
	SnapshotSummary []byte `db:"snapshot_summary"`

	TradeID   *uuid.UUID `db:"trade_id"`
	CreatedAt time.Time  `db:"created_at"`
}
