package intel

import "math"

// Priority weight bounds. Every optional intelligence source carries an
// integer weight in [MinWeight, MaxWeight]; 50 is the neutral baseline.
const (
	MinWeight     = 25
	MaxWeight     = 100
	DefaultWeight = 50
)

// SnapWeight validates a configuration-supplied weight. Non-numeric values
// and values outside [25,100] snap to the default. Used when loading
// workflow configuration, where a bad value means "the user never set it".
func SnapWeight(raw interface{}) int {
	var w int
	switch v := raw.(type) {
	case int:
		w = v
	case int32:
		w = int(v)
	case int64:
		w = int(v)
	case float32:
		w = int(v)
	case float64:
		w = int(v)
	default:
		return DefaultWeight
	}
	if w < MinWeight || w > MaxWeight {
		return DefaultWeight
	}
	return w
}

// ClampWeight coerces a runtime weight to the nearest bound. Unlike
// SnapWeight this never discards the caller's intent, it only bounds it.
func ClampWeight(w int) int {
	if w < MinWeight {
		return MinWeight
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}

// Multiplier converts a weight into a scaling factor: 0.5 at the floor,
// 1.0 at the default, 2.0 at the ceiling.
func Multiplier(w int) float64 {
	return float64(ClampWeight(w)) / 50.0
}

// Priority labels used in decision prompts and trade logs.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// PriorityLabel maps a weight to its prompt-facing priority band.
// Boundaries: <=35 low, 36..65 medium, >65 high.
func PriorityLabel(w int) string {
	w = ClampWeight(w)
	switch {
	case w <= 35:
		return PriorityLow
	case w <= 65:
		return PriorityMedium
	default:
		return PriorityHigh
	}
}

// ScaledCount scales a base item count by weight with a floor of 5.
// Used for the whale transaction list (base 20) and the news cap (base 40).
func ScaledCount(w int, base int) int {
	n := int(math.Ceil(float64(ClampWeight(w)) / 100.0 * float64(base)))
	if n < 5 {
		return 5
	}
	return n
}
