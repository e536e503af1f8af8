package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Workflow is a user-configured trading pipeline: which symbols to watch,
// which intelligence sources feed the decision and at what weight, and how
// aggressively to trade.
type Workflow struct {
	ID      uuid.UUID      `db:"id"`
	Name    string         `db:"name"`
	Symbols pq.StringArray `db:"symbols"`

	Mode     Mode     `db:"mode"`
	Strategy Strategy `db:"strategy"`

	// Per-source toggles and priority weights
	WhaleEnabled     bool `db:"whale_enabled"`
	WhaleWeight      int  `db:"whale_weight"`
	SentimentEnabled bool `db:"sentiment_enabled"`
	SentimentWeight  int  `db:"sentiment_weight"`
	NewsEnabled      bool `db:"news_enabled"`
	NewsWeight       int  `db:"news_weight"`

	// Optional headline category filter (breaking/regulatory/analysis).
	// Empty means no filtering.
	NewsCategories pq.StringArray `db:"news_categories"`

	Enabled   bool       `db:"enabled"`
	LastRunAt *time.Time `db:"last_run_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// Mode selects the decision shape
type Mode string

const (
	// ModeSingle asks for one LONG/SHORT/HOLD signal per cycle
	ModeSingle Mode = "single"
	// ModePortfolio asks for a percent-of-balance allocation across symbols
	ModePortfolio Mode = "portfolio"
)

// Valid checks if mode is valid
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModePortfolio
}

// String returns string representation
func (m Mode) String() string {
	return string(m)
}

// Strategy is the risk posture communicated to the oracle and used for
// the confidence gate and allocation bounds.
type Strategy string

const (
	StrategyConservative Strategy = "conservative"
	StrategyBalanced     Strategy = "balanced"
	StrategyAggressive   Strategy = "aggressive"
)

// Valid checks if strategy is valid
func (s Strategy) Valid() bool {
	switch s {
	case StrategyConservative, StrategyBalanced, StrategyAggressive:
		return true
	}
	return false
}

// String returns string representation
func (s Strategy) String() string {
	return string(s)
}
