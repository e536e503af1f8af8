package intel

import (
	"context"
	"time"

	"github.com/markcheno/go-talib"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/adapters/redis"
	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/logger"
)

const (
	priceCachePrefix  = "intel:price:"
	indicatorInterval = "1h"
	rsiPeriod         = 14
	emaPeriod         = 20
)

// PriceCollector fetches per-symbol market state from the exchange and
// annotates it with RSI-14 and EMA-20 computed from recent candles.
// Failed symbols fall back to the last-good Redis cache, then to a
// zero-valued quote so every monitored symbol always has an entry.
type PriceCollector struct {
	exchange    exchanges.Exchange
	cache       *redis.Client
	cacheTTL    time.Duration
	klinesLimit int
	log         *logger.Logger
}

// NewPriceCollector creates a price collector. cache may be nil.
func NewPriceCollector(exchange exchanges.Exchange, cache *redis.Client, cacheTTL time.Duration, klinesLimit int) *PriceCollector {
	if klinesLimit < emaPeriod+1 {
		klinesLimit = 100
	}
	return &PriceCollector{
		exchange:    exchange,
		cache:       cache,
		cacheTTL:    cacheTTL,
		klinesLimit: klinesLimit,
		log:         logger.Get().With("component", "price_collector"),
	}
}

// Collect returns a quote for every requested symbol. Never fails as a
// whole; per-symbol degradation is reflected in the quote itself.
func (c *PriceCollector) Collect(ctx context.Context, symbols []string) map[string]intel.PriceQuote {
	quotes := make(map[string]intel.PriceQuote, len(symbols))

	tickers, err := c.exchange.GetTickers(ctx, symbols)
	if err != nil {
		c.log.Warnw("Ticker fetch failed for all symbols", "error", err)
		tickers = nil
	}

	for _, symbol := range symbols {
		ticker, ok := tickers[symbol]
		if !ok || ticker == nil {
			quotes[symbol] = c.fallbackQuote(ctx, symbol)
			continue
		}

		quote := intel.PriceQuote{
			Symbol:       symbol,
			Price:        ticker.LastPrice.InexactFloat64(),
			Change24hPct: ticker.Change24hPct.InexactFloat64(),
			Volume24h:    ticker.VolumeQuote.InexactFloat64(),
		}

		if rsi, ema, ok := c.indicators(ctx, symbol); ok {
			quote.RSI14 = rsi
			quote.EMA20 = ema
			quote.IndicatorsValid = true
		}

		quotes[symbol] = quote
		c.cacheQuote(ctx, quote)
	}

	return quotes
}

// indicators computes RSI-14 and EMA-20 over recent hourly closes.
func (c *PriceCollector) indicators(ctx context.Context, symbol string) (rsi, ema float64, ok bool) {
	klines, err := c.exchange.GetKlines(ctx, symbol, indicatorInterval, c.klinesLimit)
	if err != nil {
		c.log.Warnw("Kline fetch failed, skipping indicators", "symbol", symbol, "error", err)
		return 0, 0, false
	}
	if len(klines) < emaPeriod+1 {
		return 0, 0, false
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close.InexactFloat64()
	}

	rsiSeries := talib.Rsi(closes, rsiPeriod)
	emaSeries := talib.Ema(closes, emaPeriod)

	return rsiSeries[len(rsiSeries)-1], emaSeries[len(emaSeries)-1], true
}

// fallbackQuote serves the last-good cached quote, or a zero quote when
// the cache is cold. Zero prices tell the decision layer to stand aside
// on that symbol.
func (c *PriceCollector) fallbackQuote(ctx context.Context, symbol string) intel.PriceQuote {
	if c.cache != nil {
		var cached intel.PriceQuote
		if err := c.cache.Get(ctx, priceCachePrefix+symbol, &cached); err == nil {
			c.log.Warnw("Serving cached price", "symbol", symbol)
			return cached
		}
	}

	c.log.Warnw("No price available", "symbol", symbol)
	return intel.PriceQuote{Symbol: symbol}
}

func (c *PriceCollector) cacheQuote(ctx context.Context, quote intel.PriceQuote) {
	if c.cache == nil || quote.Price == 0 {
		return
	}
	if err := c.cache.Set(ctx, priceCachePrefix+quote.Symbol, quote, c.cacheTTL); err != nil {
		c.log.Warnw("Failed to cache price", "symbol", quote.Symbol, "error", err)
	}
}
