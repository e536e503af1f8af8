package exchanges

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func btcFilters() *SymbolFilters {
	return &SymbolFilters{
		Symbol:      "BTCUSDT",
		StepSize:    dec("0.001"),
		MinQty:      dec("0.001"),
		TickSize:    dec("0.1"),
		MinNotional: dec("5"),
	}
}

func TestRoundQty(t *testing.T) {
	f := btcFilters()

	// Always truncates down, never up
	assert.True(t, dec("0.023").Equal(f.RoundQty(dec("0.0239"))))
	assert.True(t, dec("0.023").Equal(f.RoundQty(dec("0.023"))))
	assert.True(t, dec("0").Equal(f.RoundQty(dec("0.0009"))))

	// Nil filters pass through
	var nilF *SymbolFilters
	assert.True(t, dec("0.0239").Equal(nilF.RoundQty(dec("0.0239"))))
}

func TestRoundPrice(t *testing.T) {
	f := btcFilters()

	assert.True(t, dec("50000.1").Equal(f.RoundPrice(dec("50000.12"))))
	assert.True(t, dec("50000.2").Equal(f.RoundPrice(dec("50000.17"))))
}

func TestMeetsMinimums(t *testing.T) {
	f := btcFilters()
	price := dec("50000")

	assert.True(t, f.MeetsMinimums(dec("0.001"), price))
	assert.False(t, f.MeetsMinimums(dec("0.0005"), price), "below min qty")
	assert.False(t, f.MeetsMinimums(dec("0.001"), dec("1")), "below min notional")
	assert.False(t, f.MeetsMinimums(decimal.Zero, price))
}
