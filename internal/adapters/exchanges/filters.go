package exchanges

import (
	"github.com/shopspring/decimal"
)

// SymbolFilters carries the venue's trading constraints for one symbol,
// taken from exchange info (LOT_SIZE, PRICE_FILTER, MIN_NOTIONAL).
type SymbolFilters struct {
	Symbol      string
	StepSize    decimal.Decimal // quantity granularity
	MinQty      decimal.Decimal
	TickSize    decimal.Decimal // price granularity
	MinNotional decimal.Decimal
}

// RoundQty truncates a quantity down to the symbol's step size.
// Truncation, not rounding, so the order never exceeds the sized budget.
func (f *SymbolFilters) RoundQty(qty decimal.Decimal) decimal.Decimal {
	if f == nil || f.StepSize.IsZero() {
		return qty
	}
	steps := qty.Div(f.StepSize).Floor()
	return steps.Mul(f.StepSize)
}

// RoundPrice snaps a price to the symbol's tick size.
func (f *SymbolFilters) RoundPrice(price decimal.Decimal) decimal.Decimal {
	if f == nil || f.TickSize.IsZero() {
		return price
	}
	ticks := price.Div(f.TickSize).Round(0)
	return ticks.Mul(f.TickSize)
}

// MeetsMinimums reports whether a rounded quantity at the given price
// satisfies the venue's minimum quantity and minimum notional.
func (f *SymbolFilters) MeetsMinimums(qty, price decimal.Decimal) bool {
	if f == nil {
		return qty.IsPositive()
	}
	if !f.MinQty.IsZero() && qty.LessThan(f.MinQty) {
		return false
	}
	if !f.MinNotional.IsZero() && qty.Mul(price).LessThan(f.MinNotional) {
		return false
	}
	return qty.IsPositive()
}
