package exchanges

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide defines buy or sell direction.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Opposite returns the closing side for a position opened on this side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderType defines supported order execution types.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopMarket OrderType = "stop_market"
)

// OrderStatus enumerates exchange level order lifecycle.
type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "new"
	OrderStatusPartial  OrderStatus = "partial"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusExpired  OrderStatus = "expired"
	OrderStatusUnknown  OrderStatus = "unknown"
)

// TimeInForce enumerates supported order time policies.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
)

// OrderRequest is the unified payload for order placement.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      decimal.Decimal
	Price         decimal.Decimal // limit orders
	StopPrice     decimal.Decimal // stop orders
	TimeInForce   TimeInForce
	ReduceOnly    bool
	ClientOrderID string
}

// Order represents a normalized exchange order.
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Type          OrderType
	Side          OrderSide
	Status        OrderStatus
	Price         decimal.Decimal
	StopPrice     decimal.Decimal
	Quantity      decimal.Decimal
	Filled        decimal.Decimal
	AvgFillPrice  decimal.Decimal
	ReduceOnly    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Kline is one OHLCV candle.
type Kline struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Ticker contains 24h stats for a symbol.
type Ticker struct {
	Symbol       string
	LastPrice    decimal.Decimal
	High24h      decimal.Decimal
	Low24h       decimal.Decimal
	VolumeQuote  decimal.Decimal
	Change24hPct decimal.Decimal
	Timestamp    time.Time
}

// Balance describes the futures wallet.
type Balance struct {
	Total     decimal.Decimal
	Available decimal.Decimal
	Currency  string
}

// Position represents a futures position. Size is signed: positive long,
// negative short, zero flat.
type Position struct {
	Symbol        string
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	Leverage      decimal.Decimal
	UnrealizedPnL decimal.Decimal
	UpdatedAt     time.Time
}

// IsFlat reports whether the position is effectively closed.
func (p *Position) IsFlat() bool {
	return p == nil || p.Size.IsZero()
}

// IsLong reports a net long position.
func (p *Position) IsLong() bool {
	return p != nil && p.Size.IsPositive()
}

// IsShort reports a net short position.
func (p *Position) IsShort() bool {
	return p != nil && p.Size.IsNegative()
}
