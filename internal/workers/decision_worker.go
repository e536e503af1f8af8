package workers

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/decision"
	"tradecraft/internal/domain/intel"
	"tradecraft/internal/domain/signal"
	"tradecraft/internal/domain/workflow"
	"tradecraft/internal/events"
	"tradecraft/internal/executor"
	sbuilder "tradecraft/internal/intel"
	"tradecraft/internal/metrics"
	"tradecraft/pkg/errors"
)

// DecisionCycleWorker runs the full pipeline for every active workflow:
// snapshot, decision, execution. Cycles are long (oracle latency plus a
// sequential execution batch), so re-entry is guarded by a busy flag;
// an overlapping tick is skipped, not queued.
type DecisionCycleWorker struct {
	*BaseWorker

	workflows workflow.Repository
	snapshots *sbuilder.SnapshotBuilder
	engine    *decision.Engine
	executor  *executor.Orchestrator
	exchange  exchanges.Exchange

	signals signal.Repository
	events  *events.Publisher

	busy atomic.Bool
}

// NewDecisionCycleWorker creates the decision cycle worker
func NewDecisionCycleWorker(
	interval time.Duration,
	workflows workflow.Repository,
	snapshots *sbuilder.SnapshotBuilder,
	engine *decision.Engine,
	orchestrator *executor.Orchestrator,
	exchange exchanges.Exchange,
	signals signal.Repository,
	publisher *events.Publisher,
) *DecisionCycleWorker {
	return &DecisionCycleWorker{
		BaseWorker: NewBaseWorker("decision_cycle", interval, true),
		workflows:  workflows,
		snapshots:  snapshots,
		engine:     engine,
		executor:   orchestrator,
		exchange:   exchange,
		signals:    signals,
		events:     publisher,
	}
}

// Run executes one decision cycle across all active workflows. If the
// previous cycle is still running the tick is dropped.
func (w *DecisionCycleWorker) Run(ctx context.Context) error {
	if !w.busy.CompareAndSwap(false, true) {
		w.Log().Warn("Previous decision cycle still running, skipping this tick")
		metrics.CycleSkips.WithLabelValues(w.Name()).Inc()
		return nil
	}
	defer w.busy.Store(false)

	start := time.Now()

	active, err := w.workflows.GetActive(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "load active workflows")
	}

	// Sequential on purpose: workflows share one account balance and one
	// oracle rate budget.
	for _, wf := range active {
		if err := w.runWorkflow(ctx, wf); err != nil {
			w.Log().Errorw("Workflow cycle failed", "workflow_id", wf.ID, "error", err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	w.RecordRun(time.Since(start))
	return nil
}

// RunWorkflowOnce triggers a single workflow outside the schedule. Shares
// the busy flag with the periodic cycle so manual runs never overlap it.
func (w *DecisionCycleWorker) RunWorkflowOnce(ctx context.Context, id uuid.UUID) error {
	if !w.busy.CompareAndSwap(false, true) {
		metrics.CycleSkips.WithLabelValues(w.Name()).Inc()
		return errors.Wrap(errors.ErrUnavailable, "a decision cycle is already running")
	}
	defer w.busy.Store(false)

	wf, err := w.workflows.GetByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "load workflow")
	}
	if !wf.Enabled {
		return errors.Wrapf(errors.ErrInvalidInput, "workflow %s is disabled", id)
	}

	return w.runWorkflow(ctx, wf)
}

func (w *DecisionCycleWorker) runWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	log := w.Log().With("workflow_id", wf.ID, "workflow", wf.Name)
	log.Infow("Starting workflow cycle", "mode", wf.Mode, "strategy", wf.Strategy)

	snapshot := w.snapshots.Build(ctx, wf)

	// One balance read per cycle sizes every allocation in it
	balance, err := w.exchange.GetBalance(ctx)
	if err != nil {
		log.Errorw("Balance read failed, skipping cycle", "error", err)
		return errors.Wrap(err, "read balance")
	}

	dec := w.engine.Decide(ctx, wf, snapshot, balance)

	sig, err := w.recordSignal(ctx, wf, dec, snapshot)
	if err != nil {
		// The decision is still executable; the audit trail is degraded
		log.Warnw("Failed to record signal", "error", err)
	}

	var signalID *uuid.UUID
	if sig != nil {
		signalID = &sig.ID
	}

	profile := w.engine.ProfileFor(wf.Strategy)
	opened := w.executor.Execute(ctx, wf, dec, profile, balance, signalID)

	if err := w.workflows.UpdateLastRun(ctx, wf.ID); err != nil {
		log.Warnw("Failed to update last run", "error", err)
	}

	log.Infow("Workflow cycle finished", "trades", len(opened), "hold", dec.IsHold())
	return nil
}

// recordSignal persists the write-once audit record of this invocation.
func (w *DecisionCycleWorker) recordSignal(ctx context.Context, wf *workflow.Workflow, dec *decision.Decision, snapshot *intel.MarketSnapshot) (*signal.Signal, error) {
	sig := &signal.Signal{
		ID:              uuid.New(),
		WorkflowID:      wf.ID,
		Kind:            string(dec.Kind),
		SnapshotSummary: summarizeSnapshot(snapshot),
	}

	switch dec.Kind {
	case decision.KindSingle:
		sig.Symbol = dec.Single.Symbol
		sig.Direction = string(dec.Single.Signal)
		sig.Confidence = dec.Single.Confidence
		sig.Reasoning = dec.Single.Reasoning

	case decision.KindPortfolio:
		sig.Direction = "ALLOCATION"
		sig.Reasoning = dec.Portfolio.MarketOutlook
		for _, a := range dec.Portfolio.Allocations {
			if a.Confidence > sig.Confidence {
				sig.Confidence = a.Confidence
				sig.Symbol = a.Symbol
			}
		}
	}

	if err := w.signals.Create(ctx, sig); err != nil {
		return nil, err
	}

	w.events.Publish(ctx, events.KindSignalCreated, events.SignalCreated{
		SignalID:   sig.ID.String(),
		WorkflowID: wf.ID.String(),
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Confidence: sig.Confidence,
	})

	return sig, nil
}

// summarizeSnapshot compresses the snapshot for the audit record: the
// signals that shaped the decision, not the full article/transaction
// payloads.
func summarizeSnapshot(s *intel.MarketSnapshot) []byte {
	type priceLine struct {
		Price        float64 `json:"price"`
		Change24hPct float64 `json:"change_24h_pct"`
	}
	summary := struct {
		Timestamp      time.Time            `json:"timestamp"`
		Prices         map[string]priceLine `json:"prices"`
		WhaleNetFlow   string               `json:"whale_net_flow,omitempty"`
		WhaleSynthetic bool                 `json:"whale_synthetic,omitempty"`
		SentimentScore *float64             `json:"sentiment_score,omitempty"`
		NewsCount      *int                 `json:"news_count,omitempty"`
		HasBreaking    bool                 `json:"has_breaking,omitempty"`
	}{
		Timestamp: s.Timestamp,
		Prices:    make(map[string]priceLine, len(s.Prices)),
	}

	for sym, q := range s.Prices {
		summary.Prices[sym] = priceLine{Price: q.Price, Change24hPct: q.Change24hPct}
	}
	if s.Whale != nil {
		summary.WhaleNetFlow = string(s.Whale.NetFlow)
		summary.WhaleSynthetic = s.Whale.Synthetic
	}
	if s.Sentiment != nil {
		summary.SentimentScore = &s.Sentiment.Score
	}
	if s.News != nil {
		summary.NewsCount = &s.News.TotalCount
		summary.HasBreaking = s.News.HasBreaking
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil
	}
	return data
}
