package decision

import (
	"context"
	"fmt"
	"time"

	"tradecraft/internal/adapters/ai"
	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/domain/intel"
	"tradecraft/internal/domain/workflow"
	"tradecraft/internal/metrics"
	"tradecraft/pkg/logger"
)

// Engine turns a market snapshot into a bounded Decision by prompting the
// oracle and normalizing whatever comes back. Oracle failure is absorbed
// here: callers always receive a well-formed (possibly inert) Decision.
type Engine struct {
	oracle   ai.Oracle
	profiles map[workflow.Strategy]Profile
	log      *logger.Logger
}

// NewEngine creates a decision engine
func NewEngine(oracle ai.Oracle, profiles map[workflow.Strategy]Profile) *Engine {
	return &Engine{
		oracle:   oracle,
		profiles: profiles,
		log:      logger.Get().With("component", "decision_engine"),
	}
}

// ProfileFor exposes the strategy table so the execution gate applies the
// same confidence floor the prompt promised.
func (e *Engine) ProfileFor(s workflow.Strategy) Profile {
	return ProfileFor(e.profiles, s)
}

// Decide runs one oracle exchange for the workflow. In portfolio mode the
// balance read for this cycle is included in the prompt; in single mode it
// is ignored.
func (e *Engine) Decide(ctx context.Context, wf *workflow.Workflow, snapshot *intel.MarketSnapshot, balance *exchanges.Balance) *Decision {
	symbols := []string(wf.Symbols)
	profile := e.ProfileFor(wf.Strategy)

	if wf.Mode == workflow.ModePortfolio {
		return e.decidePortfolio(ctx, symbols, profile, snapshot, balance)
	}
	return e.decideSingle(ctx, symbols, profile, snapshot)
}

func (e *Engine) decideSingle(ctx context.Context, symbols []string, profile Profile, snapshot *intel.MarketSnapshot) *Decision {
	prompt := RenderSinglePrompt(snapshot, symbols, profile)

	raw, err := e.invoke(ctx, prompt)
	if err != nil {
		e.log.Errorw("Oracle invocation failed, holding", "error", err)
		return holdDecision(fallbackSymbol(symbols), fmt.Sprintf("oracle invocation failed: %v", err))
	}

	payload, ok := ExtractJSON(raw)
	if !ok {
		e.log.Errorw("Oracle returned unparseable output, holding", "raw_len", len(raw))
		return holdDecision(fallbackSymbol(symbols), "failed to parse oracle response as JSON")
	}

	single := NormalizeSingle(payload, fallbackSymbol(symbols))
	e.log.Infow("Single-signal decision",
		"signal", single.Signal,
		"symbol", single.Symbol,
		"confidence", single.Confidence,
		"leverage", single.Leverage,
	)

	return &Decision{Kind: KindSingle, Single: single}
}

func (e *Engine) decidePortfolio(ctx context.Context, symbols []string, profile Profile, snapshot *intel.MarketSnapshot, balance *exchanges.Balance) *Decision {
	prompt := RenderPortfolioPrompt(snapshot, symbols, profile, balance)

	raw, err := e.invoke(ctx, prompt)
	if err != nil {
		e.log.Errorw("Oracle invocation failed, empty allocation", "error", err)
		return emptyAllocation(fmt.Sprintf("oracle invocation failed: %v", err))
	}

	payload, ok := ExtractJSON(raw)
	if !ok {
		e.log.Errorw("Oracle returned unparseable output, empty allocation", "raw_len", len(raw))
		return emptyAllocation("failed to parse oracle response as JSON")
	}

	portfolio := NormalizePortfolio(payload)
	e.log.Infow("Portfolio decision",
		"allocations", len(portfolio.Allocations),
		"total_pct", portfolio.TotalAllocationPercent,
		"reserve_pct", portfolio.ReservePercent,
	)

	return &Decision{Kind: KindPortfolio, Portfolio: portfolio}
}

func (e *Engine) invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	raw, err := e.oracle.Invoke(ctx, ai.InvokeRequest{
		System: systemPrompt,
		Prompt: prompt,
	})
	metrics.RecordOracleCall(e.oracle.Name(), time.Since(start), err)
	return raw, err
}

// holdDecision is the degraded single-mode decision: inert, confidence
// zero, failure text preserved for the audit trail.
func holdDecision(symbol, reason string) *Decision {
	return &Decision{
		Kind: KindSingle,
		Single: &SingleSignal{
			Signal:            SignalHold,
			Symbol:            symbol,
			Confidence:        0,
			Leverage:          defaultLeverage,
			TakeProfitPercent: defaultTakeProfitPct,
			StopLossPercent:   defaultStopLossPct,
			Reasoning:         reason,
		},
	}
}

// emptyAllocation is the degraded portfolio decision: everything in
// reserve.
func emptyAllocation(reason string) *Decision {
	return &Decision{
		Kind: KindPortfolio,
		Portfolio: &AllocationDecision{
			MarketOutlook:          reason,
			RiskAssessment:         "standing aside",
			Allocations:            nil,
			TotalAllocationPercent: 0,
			ReservePercent:         100,
		},
	}
}

func fallbackSymbol(symbols []string) string {
	if len(symbols) > 0 {
		return symbols[0]
	}
	return ""
}
