package decision

import (
	"encoding/json"
	"strings"
)

// Hard numeric bounds for any decision, regardless of strategy. Strategy
// profiles give the oracle tighter guidance, but these are the limits the
// pipeline enforces.
const (
	minLeverage = 1
	maxLeverage = 125

	minTakeProfitPct = 0.5
	maxTakeProfitPct = 50

	minStopLossPct = 0.5
	maxStopLossPct = 25

	defaultConfidence    = 0.5
	defaultLeverage      = 1
	defaultTakeProfitPct = 2
	defaultStopLossPct   = 5
	defaultHoldReasoning = "no reasoning provided"
)

// rawSingle mirrors the JSON contract with optional fields so missing
// keys are distinguishable from zero values.
type rawSingle struct {
	Signal            string   `json:"signal"`
	Symbol            string   `json:"symbol"`
	Confidence        *float64 `json:"confidence"`
	Leverage          *float64 `json:"leverage"`
	TakeProfitPercent *float64 `json:"takeProfitPercent"`
	StopLossPercent   *float64 `json:"stopLossPercent"`
	Reasoning         string   `json:"reasoning"`
}

type rawPortfolio struct {
	MarketOutlook  string    `json:"marketOutlook"`
	RiskAssessment string    `json:"riskAssessment"`
	Allocations    []rawLine `json:"allocations"`
}

type rawLine struct {
	Symbol            string   `json:"symbol"`
	Signal            string   `json:"signal"`
	AllocationPercent *float64 `json:"allocationPercent"`
	Confidence        *float64 `json:"confidence"`
	Leverage          *float64 `json:"leverage"`
	TakeProfitPercent *float64 `json:"takeProfitPercent"`
	StopLossPercent   *float64 `json:"stopLossPercent"`
	Reasoning         string   `json:"reasoning"`
}

// NormalizeSingle clamps a parsed single-signal oracle payload. Missing
// fields degrade to inert defaults, never an error.
func NormalizeSingle(payload []byte, fallbackSymbol string) *SingleSignal {
	var raw rawSingle
	_ = json.Unmarshal(payload, &raw)

	out := &SingleSignal{
		Signal:            parseSignal(raw.Signal),
		Symbol:            raw.Symbol,
		Confidence:        clampFloat(raw.Confidence, 0, 1, defaultConfidence),
		Leverage:          clampLeverage(raw.Leverage),
		TakeProfitPercent: clampFloat(raw.TakeProfitPercent, minTakeProfitPct, maxTakeProfitPct, defaultTakeProfitPct),
		StopLossPercent:   clampFloat(raw.StopLossPercent, minStopLossPct, maxStopLossPct, defaultStopLossPct),
		Reasoning:         raw.Reasoning,
	}

	if out.Symbol == "" {
		out.Symbol = fallbackSymbol
	}
	if out.Reasoning == "" {
		out.Reasoning = defaultHoldReasoning
	}

	return out
}

// NormalizePortfolio clamps a parsed portfolio oracle payload. Lines are
// clamped individually, then the totals are recomputed from the clamped
// lines.
func NormalizePortfolio(payload []byte) *AllocationDecision {
	var raw rawPortfolio
	_ = json.Unmarshal(payload, &raw)

	out := &AllocationDecision{
		MarketOutlook:  raw.MarketOutlook,
		RiskAssessment: raw.RiskAssessment,
		Allocations:    make([]Allocation, 0, len(raw.Allocations)),
	}

	for _, line := range raw.Allocations {
		if line.Symbol == "" {
			continue
		}
		out.Allocations = append(out.Allocations, Allocation{
			Symbol:            line.Symbol,
			Signal:            parseSignal(line.Signal),
			AllocationPercent: clampFloat(line.AllocationPercent, 0, 100, 0),
			Confidence:        clampFloat(line.Confidence, 0, 1, defaultConfidence),
			Leverage:          clampLeverage(line.Leverage),
			TakeProfitPercent: clampFloat(line.TakeProfitPercent, minTakeProfitPct, maxTakeProfitPct, defaultTakeProfitPct),
			StopLossPercent:   clampFloat(line.StopLossPercent, minStopLossPct, maxStopLossPct, defaultStopLossPct),
			Reasoning:         line.Reasoning,
		})
	}

	RecomputeTotals(out)
	return out
}

// RecomputeTotals derives totalAllocationPercent and reservePercent from
// the allocation lines. Empty allocations leave the full balance in
// reserve.
func RecomputeTotals(d *AllocationDecision) {
	var sum float64
	for _, a := range d.Allocations {
		sum += a.AllocationPercent
	}
	if sum > 100 {
		sum = 100
	}
	d.TotalAllocationPercent = sum
	d.ReservePercent = 100 - sum
}

func parseSignal(s string) Signal {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return SignalLong
	case "SHORT", "SELL":
		return SignalShort
	default:
		return SignalHold
	}
}

func clampFloat(v *float64, min, max, def float64) float64 {
	if v == nil {
		return def
	}
	if *v < min {
		return min
	}
	if *v > max {
		return max
	}
	return *v
}

func clampLeverage(v *float64) int {
	if v == nil {
		return defaultLeverage
	}
	lev := int(*v)
	if lev < minLeverage {
		return minLeverage
	}
	if lev > maxLeverage {
		return maxLeverage
	}
	return lev
}
