package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradecraft/internal/adapters/exchanges"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", NormalizeSymbol("BTCUSDT"))
	assert.Equal(t, "BTCUSDT", NormalizeSymbol("btcusdt"))
	assert.Equal(t, "BTCUSDT", NormalizeSymbol("BTC/USDT"))
	assert.Equal(t, "BTCUSDT", NormalizeSymbol("BTC-USDT"))
	assert.Equal(t, "ETHUSDT", NormalizeSymbol("eth_usdt"))
}

func TestOrderStatusFromString(t *testing.T) {
	assert.Equal(t, exchanges.OrderStatusFilled, orderStatusFromString("FILLED"))
	assert.Equal(t, exchanges.OrderStatusPartial, orderStatusFromString("PARTIALLY_FILLED"))
	assert.Equal(t, exchanges.OrderStatusCanceled, orderStatusFromString("CANCELED"))
	assert.Equal(t, exchanges.OrderStatusUnknown, orderStatusFromString("???"))
}

func TestPositionResponseSignedSize(t *testing.T) {
	long := positionResponse{Symbol: "BTCUSDT", PositionAmt: "0.5"}
	short := positionResponse{Symbol: "BTCUSDT", PositionAmt: "-0.5"}
	flat := positionResponse{Symbol: "BTCUSDT", PositionAmt: "0"}

	lp := long.toPosition()
	sp := short.toPosition()
	fp := flat.toPosition()

	assert.True(t, lp.IsLong())
	assert.True(t, sp.IsShort())
	assert.True(t, fp.IsFlat())
}
