package exchanges

import (
	"context"
)

// Exchange defines the contract the pipeline needs from a futures venue.
// All calls are request/response; symbol translation between the canonical
// form (BTCUSDT) and the venue's native form happens inside the adapter.
type Exchange interface {
	Name() string

	// Market data
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
	GetTickers(ctx context.Context, symbols []string) (map[string]*Ticker, error)
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]Kline, error)

	// Account
	GetBalance(ctx context.Context) (*Balance, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetPosition(ctx context.Context, symbol string) (*Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]Order, error)

	// Trading
	PlaceOrder(ctx context.Context, req *OrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	ClosePosition(ctx context.Context, symbol string) error

	// Futures specific
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	GetSymbolFilters(ctx context.Context, symbol string) (*SymbolFilters, error)
}
