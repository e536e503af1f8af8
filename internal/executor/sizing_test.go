package executor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func btcFilters() *exchanges.SymbolFilters {
	return &exchanges.SymbolFilters{
		Symbol:      "BTCUSDT",
		StepSize:    dec("0.001"),
		MinQty:      dec("0.001"),
		TickSize:    dec("0.1"),
		MinNotional: dec("100"),
	}
}

func usdt(v string) *exchanges.Balance {
	return &exchanges.Balance{Total: dec(v), Available: dec(v), Currency: "USDT"}
}

func TestSizerQuantity(t *testing.T) {
	s := NewSizer(95, 5)

	// 10% of 10000 = 1000 margin, 5x leverage = 5000 notional, /50000 = 0.1
	qty, err := s.Quantity(usdt("10000"), 10, 5, dec("50000"), btcFilters())
	require.NoError(t, err)
	assert.True(t, qty.Equal(dec("0.1")), "got %s", qty)
}

func TestSizerTruncatesToStepSize(t *testing.T) {
	s := NewSizer(95, 5)

	// 3333.33 notional / 50000 = 0.0666666 -> floored to 0.066
	qty, err := s.Quantity(usdt("10000"), 33.3333, 1, dec("50000"), btcFilters())
	require.NoError(t, err)
	assert.True(t, qty.Equal(dec("0.066")), "got %s", qty)
}

func TestSizerCapsAllocationAtMaxMargin(t *testing.T) {
	s := NewSizer(50, 5)

	capped, err := s.Quantity(usdt("10000"), 100, 1, dec("50000"), btcFilters())
	require.NoError(t, err)
	atCap, err := s.Quantity(usdt("10000"), 50, 1, dec("50000"), btcFilters())
	require.NoError(t, err)
	assert.True(t, capped.Equal(atCap))
}

func TestSizerBelowMinNotional(t *testing.T) {
	s := NewSizer(95, 5)

	// 1% of 100 = 1 USD notional, under the venue's 100 minimum
	_, err := s.Quantity(usdt("100"), 1, 1, dec("50000"), btcFilters())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBelowMinNotional))
}

func TestSizerRejectsBadInputs(t *testing.T) {
	s := NewSizer(95, 5)

	_, err := s.Quantity(nil, 10, 1, dec("50000"), btcFilters())
	assert.True(t, errors.Is(err, errors.ErrInsufficientBalance))

	_, err = s.Quantity(usdt("1000"), 10, 1, decimal.Zero, btcFilters())
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = s.Quantity(usdt("1000"), 0, 1, dec("50000"), btcFilters())
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestBracketPricesLong(t *testing.T) {
	tp, sl := BracketPrices(exchanges.OrderSideBuy, dec("50000"), 4, 2, btcFilters())
	assert.True(t, tp.Equal(dec("52000")), "got %s", tp)
	assert.True(t, sl.Equal(dec("49000")), "got %s", sl)
}

func TestBracketPricesShort(t *testing.T) {
	tp, sl := BracketPrices(exchanges.OrderSideSell, dec("50000"), 4, 2, btcFilters())
	assert.True(t, tp.Equal(dec("48000")), "got %s", tp)
	assert.True(t, sl.Equal(dec("51000")), "got %s", sl)
}

func TestBracketPricesSnapToTick(t *testing.T) {
	tp, _ := BracketPrices(exchanges.OrderSideBuy, dec("33333.33"), 1, 1, btcFilters())
	assert.True(t, tp.Mod(dec("0.1")).IsZero(), "tp %s not on tick", tp)
}
