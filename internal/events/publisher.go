package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradecraft/internal/adapters/kafka"
	"tradecraft/pkg/logger"
)

// Event kinds carried on the lifecycle topic
const (
	KindSignalCreated  = "signal.created"
	KindTradeOpened    = "trade.opened"
	KindTradeFailed    = "trade.failed"
	KindPositionClosed = "position.closed"
)

// Envelope wraps every published event with common metadata.
type Envelope struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// SignalCreated is emitted after each decision engine invocation.
type SignalCreated struct {
	SignalID   string  `json:"signal_id"`
	WorkflowID string  `json:"workflow_id"`
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
}

// TradeOpened is emitted when an entry order fills.
type TradeOpened struct {
	TradeID    string  `json:"trade_id"`
	WorkflowID string  `json:"workflow_id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   string  `json:"quantity"`
	EntryPrice string  `json:"entry_price"`
	Leverage   int     `json:"leverage"`
	Confidence float64 `json:"confidence"`
}

// TradeFailed is emitted when an entry order is rejected.
type TradeFailed struct {
	TradeID    string `json:"trade_id"`
	WorkflowID string `json:"workflow_id"`
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	Error      string `json:"error"`
}

// PositionClosed is emitted by the reconciler when a position ends.
type PositionClosed struct {
	TradeID     string `json:"trade_id"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	CloseReason string `json:"close_reason"`
	ClosePrice  string `json:"close_price"`
	PnL         string `json:"pnl"`
	Approximate bool   `json:"approximate"`
}

// Publisher publishes lifecycle events. A nil Publisher (events disabled)
// is safe to call; publishing is always best-effort.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a lifecycle event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "events"),
	}
}

// Publish wraps the payload in an envelope and sends it keyed by kind.
func (p *Publisher) Publish(ctx context.Context, kind string, payload interface{}) {
	if p == nil || p.producer == nil {
		return
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	if err := p.producer.Publish(ctx, kind, env); err != nil {
		p.log.Warnf("Failed to publish %s event: %v", kind, err)
	}
}

// Close flushes and closes the underlying producer
func (p *Publisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
