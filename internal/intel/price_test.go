package intel

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/pkg/errors"
)

type fakeExchange struct {
	tickers    map[string]*exchanges.Ticker
	tickersErr error
	klines     []exchanges.Kline
	klinesErr  error
}

func (f *fakeExchange) Name() string { return "fake" }

func (f *fakeExchange) GetTicker(ctx context.Context, symbol string) (*exchanges.Ticker, error) {
	if t, ok := f.tickers[symbol]; ok {
		return t, nil
	}
	return nil, errors.ErrInvalidSymbol
}

func (f *fakeExchange) GetTickers(ctx context.Context, symbols []string) (map[string]*exchanges.Ticker, error) {
	return f.tickers, f.tickersErr
}

func (f *fakeExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]exchanges.Kline, error) {
	return f.klines, f.klinesErr
}

func (f *fakeExchange) GetBalance(ctx context.Context) (*exchanges.Balance, error) { return nil, nil }
func (f *fakeExchange) GetPositions(ctx context.Context) ([]exchanges.Position, error) {
	return nil, nil
}
func (f *fakeExchange) GetPosition(ctx context.Context, symbol string) (*exchanges.Position, error) {
	return &exchanges.Position{Symbol: symbol}, nil
}
func (f *fakeExchange) GetOpenOrders(ctx context.Context, symbol string) ([]exchanges.Order, error) {
	return nil, nil
}
func (f *fakeExchange) PlaceOrder(ctx context.Context, req *exchanges.OrderRequest) (*exchanges.Order, error) {
	return nil, nil
}
func (f *fakeExchange) CancelOrder(ctx context.Context, symbol, orderID string) error { return nil }
func (f *fakeExchange) ClosePosition(ctx context.Context, symbol string) error        { return nil }
func (f *fakeExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}
func (f *fakeExchange) GetSymbolFilters(ctx context.Context, symbol string) (*exchanges.SymbolFilters, error) {
	return nil, nil
}

func steadyKlines(n int, close float64) []exchanges.Kline {
	now := time.Now()
	klines := make([]exchanges.Kline, n)
	for i := range klines {
		klines[i] = exchanges.Kline{
			OpenTime: now.Add(-time.Duration(n-i) * time.Hour),
			Close:    decimal.NewFromFloat(close),
		}
	}
	return klines
}

func btcTicker(price float64) *exchanges.Ticker {
	return &exchanges.Ticker{
		Symbol:       "BTCUSDT",
		LastPrice:    decimal.NewFromFloat(price),
		Change24hPct: decimal.NewFromFloat(2.5),
		VolumeQuote:  decimal.NewFromInt(1_000_000),
	}
}

func TestPriceCollectQuoteWithIndicators(t *testing.T) {
	ex := &fakeExchange{
		tickers: map[string]*exchanges.Ticker{"BTCUSDT": btcTicker(50_000)},
		klines:  steadyKlines(100, 50_000),
	}
	c := NewPriceCollector(ex, nil, time.Minute, 100)

	quotes := c.Collect(context.Background(), []string{"BTCUSDT"})
	require.Contains(t, quotes, "BTCUSDT")

	q := quotes["BTCUSDT"]
	assert.InDelta(t, 50_000, q.Price, 1e-9)
	assert.InDelta(t, 2.5, q.Change24hPct, 1e-9)
	assert.True(t, q.IndicatorsValid)
	assert.InDelta(t, 50_000, q.EMA20, 1, "flat closes converge the EMA on the price")
}

func TestPriceCollectZeroQuoteOnTotalFailure(t *testing.T) {
	ex := &fakeExchange{tickersErr: errors.ErrExchangeUnavailable}
	c := NewPriceCollector(ex, nil, time.Minute, 100)

	quotes := c.Collect(context.Background(), []string{"BTCUSDT", "ETHUSDT"})
	require.Len(t, quotes, 2)
	assert.Zero(t, quotes["BTCUSDT"].Price)
	assert.Equal(t, "ETHUSDT", quotes["ETHUSDT"].Symbol)
}

func TestPriceCollectSkipsIndicatorsOnKlineFailure(t *testing.T) {
	ex := &fakeExchange{
		tickers:   map[string]*exchanges.Ticker{"BTCUSDT": btcTicker(50_000)},
		klinesErr: errors.ErrExchangeUnavailable,
	}
	c := NewPriceCollector(ex, nil, time.Minute, 100)

	q := c.Collect(context.Background(), []string{"BTCUSDT"})["BTCUSDT"]
	assert.InDelta(t, 50_000, q.Price, 1e-9)
	assert.False(t, q.IndicatorsValid)
	assert.Zero(t, q.RSI14)
}
