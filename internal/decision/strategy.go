package decision

import (
	"tradecraft/internal/adapters/config"
	"tradecraft/internal/domain/workflow"
)

// Profile captures the risk posture of one strategy. Leverage and TP/SL
// ranges are prompt guidance; MinConfidence is the hard execution gate;
// MaxTotalAllocation and MinReserve are communicated to the oracle and
// re-checked after normalization.
type Profile struct {
	Strategy           workflow.Strategy
	MinConfidence      float64
	LeverageMin        int
	LeverageMax        int
	TakeProfitMinPct   float64
	TakeProfitMaxPct   float64
	StopLossMinPct     float64
	StopLossMaxPct     float64
	MaxTotalAllocation float64
	MinReserve         float64
}

// Profiles builds the strategy table. Confidence floors come from config
// so a deployment can tighten or loosen the gate without a rebuild.
func Profiles(cfg config.WorkerConfig) map[workflow.Strategy]Profile {
	return map[workflow.Strategy]Profile{
		workflow.StrategyConservative: {
			Strategy:           workflow.StrategyConservative,
			MinConfidence:      cfg.ConservativeMinConfidence,
			LeverageMin:        1,
			LeverageMax:        3,
			TakeProfitMinPct:   1,
			TakeProfitMaxPct:   5,
			StopLossMinPct:     0.5,
			StopLossMaxPct:     2,
			MaxTotalAllocation: 50,
			MinReserve:         50,
		},
		workflow.StrategyBalanced: {
			Strategy:           workflow.StrategyBalanced,
			MinConfidence:      cfg.BalancedMinConfidence,
			LeverageMin:        2,
			LeverageMax:        10,
			TakeProfitMinPct:   2,
			TakeProfitMaxPct:   10,
			StopLossMinPct:     1,
			StopLossMaxPct:     5,
			MaxTotalAllocation: 80,
			MinReserve:         20,
		},
		workflow.StrategyAggressive: {
			Strategy:           workflow.StrategyAggressive,
			MinConfidence:      cfg.AggressiveMinConfidence,
			LeverageMin:        5,
			LeverageMax:        20,
			TakeProfitMinPct:   3,
			TakeProfitMaxPct:   20,
			StopLossMinPct:     2,
			StopLossMaxPct:     10,
			MaxTotalAllocation: 90,
			MinReserve:         10,
		},
	}
}

// ProfileFor returns the profile for a strategy, falling back to
// balanced for anything unrecognized.
func ProfileFor(profiles map[workflow.Strategy]Profile, s workflow.Strategy) Profile {
	if p, ok := profiles[s]; ok {
		return p
	}
	return profiles[workflow.StrategyBalanced]
}
