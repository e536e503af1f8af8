package decision

// Signal is the directional call for one symbol.
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalHold  Signal = "HOLD"
)

// Kind discriminates the two decision shapes.
type Kind string

const (
	KindSingle    Kind = "single"
	KindPortfolio Kind = "portfolio"
)

// SingleSignal is a one-symbol directional decision. All numeric fields
// are clamped by the normalizer before the value leaves this package.
type SingleSignal struct {
	Signal            Signal  `json:"signal"`
	Symbol            string  `json:"symbol"`
	Confidence        float64 `json:"confidence"`
	Leverage          int     `json:"leverage"`
	TakeProfitPercent float64 `json:"takeProfitPercent"`
	StopLossPercent   float64 `json:"stopLossPercent"`
	Reasoning         string  `json:"reasoning"`
}

// Allocation is one line of a portfolio decision.
type Allocation struct {
	Symbol            string  `json:"symbol"`
	Signal            Signal  `json:"signal"`
	AllocationPercent float64 `json:"allocationPercent"`
	Confidence        float64 `json:"confidence"`
	Leverage          int     `json:"leverage"`
	TakeProfitPercent float64 `json:"takeProfitPercent"`
	StopLossPercent   float64 `json:"stopLossPercent"`
	Reasoning         string  `json:"reasoning"`
}

// AllocationDecision spreads a percent-of-balance budget across symbols.
// TotalAllocationPercent and ReservePercent are always recomputed from
// the clamped lines, never taken from the oracle.
type AllocationDecision struct {
	MarketOutlook          string       `json:"marketOutlook"`
	RiskAssessment         string       `json:"riskAssessment"`
	Allocations            []Allocation `json:"allocations"`
	TotalAllocationPercent float64      `json:"totalAllocationPercent"`
	ReservePercent         float64      `json:"reservePercent"`
}

// Decision is the tagged union handed to the execution layer. Exactly one
// payload pointer is non-nil, matching Kind.
type Decision struct {
	Kind      Kind
	Single    *SingleSignal
	Portfolio *AllocationDecision
}

// IsHold reports whether the decision carries no actionable line.
func (d *Decision) IsHold() bool {
	switch d.Kind {
	case KindSingle:
		return d.Single == nil || d.Single.Signal == SignalHold
	case KindPortfolio:
		if d.Portfolio == nil {
			return true
		}
		for _, a := range d.Portfolio.Allocations {
			if a.Signal != SignalHold && a.AllocationPercent > 0 {
				return false
			}
		}
		return true
	}
	return true
}
