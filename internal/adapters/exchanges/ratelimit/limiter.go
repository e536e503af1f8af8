package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"tradecraft/pkg/errors"
)

// Limiter provides rate limiting for exchange API calls
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a new rate limiter.
// requestsPerMinute: maximum number of requests allowed per minute
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0

	// Allow burst of 10% of the per-minute limit
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// MultiLimiter manages named rate limiters (global, order, etc.)
type MultiLimiter struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*Limiter),
	}
}

// AddLimiter adds a rate limiter for a specific key
func (m *MultiLimiter) AddLimiter(key string, limiter *Limiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[key] = limiter
}

// Wait waits for all specified limiters
func (m *MultiLimiter) Wait(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, key := range keys {
		if limiter, ok := m.limiters[key]; ok {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

// ForBinanceFutures creates the limiter set for the Binance USDT-M API.
// https://binance-docs.github.io/apidocs/futures/en/#limits
func ForBinanceFutures(requestsPerMin, ordersPerSecond int) *MultiLimiter {
	if requestsPerMin <= 0 {
		requestsPerMin = 1200
	}
	if ordersPerSecond <= 0 {
		ordersPerSecond = 10
	}

	ml := NewMultiLimiter()
	ml.AddLimiter("global", NewLimiter("binance-global", requestsPerMin))
	ml.AddLimiter("order", NewLimiter("binance-order", ordersPerSecond*60))
	return ml
}
