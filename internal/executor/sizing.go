package executor

import (
	"github.com/shopspring/decimal"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/pkg/errors"
)

// Sizer converts a percent-of-balance allocation into an order quantity
// that respects the venue's lot size and minimum notional.
type Sizer struct {
	// Cap on how much of the available balance a single cycle may commit
	// as margin, across all allocations.
	maxMarginPercent float64
	// Local floor on position notional, on top of the venue's own minimum.
	minNotionalUSD float64
}

// NewSizer creates an order sizer
func NewSizer(maxMarginPercent, minNotionalUSD float64) *Sizer {
	return &Sizer{
		maxMarginPercent: maxMarginPercent,
		minNotionalUSD:   minNotionalUSD,
	}
}

// Quantity sizes one order. The allocation percent applies to the
// available balance as margin; leverage multiplies margin into notional;
// the result is truncated to the symbol's step size.
func (s *Sizer) Quantity(balance *exchanges.Balance, allocationPct float64, leverage int, price decimal.Decimal, filters *exchanges.SymbolFilters) (decimal.Decimal, error) {
	if balance == nil || !balance.Available.IsPositive() {
		return decimal.Zero, errors.Wrap(errors.ErrInsufficientBalance, "no available balance")
	}
	if !price.IsPositive() {
		return decimal.Zero, errors.Wrap(errors.ErrInvalidInput, "price must be positive")
	}
	if allocationPct <= 0 {
		return decimal.Zero, errors.Wrap(errors.ErrInvalidInput, "allocation must be positive")
	}
	if allocationPct > s.maxMarginPercent {
		allocationPct = s.maxMarginPercent
	}

	margin := balance.Available.Mul(decimal.NewFromFloat(allocationPct / 100))
	notional := margin.Mul(decimal.NewFromInt(int64(leverage)))

	if notional.LessThan(decimal.NewFromFloat(s.minNotionalUSD)) {
		return decimal.Zero, errors.Wrapf(errors.ErrBelowMinNotional,
			"notional %s below local floor %.2f", notional.StringFixed(2), s.minNotionalUSD)
	}

	qty := filters.RoundQty(notional.Div(price))
	if !filters.MeetsMinimums(qty, price) {
		return decimal.Zero, errors.Wrapf(errors.ErrBelowMinNotional,
			"qty %s at %s fails venue minimums", qty.String(), price.String())
	}

	return qty, nil
}

// BracketPrices derives the TP and SL trigger prices from the actual
// entry price and side, snapped to the tick size. For longs TP sits
// above entry and SL below; shorts are mirrored.
func BracketPrices(side exchanges.OrderSide, entry decimal.Decimal, tpPct, slPct float64, filters *exchanges.SymbolFilters) (tp, sl decimal.Decimal) {
	tpFrac := decimal.NewFromFloat(tpPct / 100)
	slFrac := decimal.NewFromFloat(slPct / 100)

	if side == exchanges.OrderSideBuy {
		tp = entry.Mul(decimal.NewFromInt(1).Add(tpFrac))
		sl = entry.Mul(decimal.NewFromInt(1).Sub(slFrac))
	} else {
		tp = entry.Mul(decimal.NewFromInt(1).Sub(tpFrac))
		sl = entry.Mul(decimal.NewFromInt(1).Add(slFrac))
	}

	return filters.RoundPrice(tp), filters.RoundPrice(sl)
}
