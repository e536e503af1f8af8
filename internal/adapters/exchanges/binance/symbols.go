package binance

import (
	"strconv"
	"strings"
	"time"

	"tradecraft/internal/adapters/exchanges"
)

// NormalizeSymbol translates a canonical symbol (btc/usdt, BTC-USDT,
// BTCUSDT) into Binance's native form. The rest of the system only ever
// speaks the canonical uppercase concatenated form.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

func mapOrderType(t exchanges.OrderType) string {
	switch t {
	case exchanges.OrderTypeMarket:
		return "MARKET"
	case exchanges.OrderTypeLimit:
		return "LIMIT"
	case exchanges.OrderTypeStopMarket:
		return "STOP_MARKET"
	default:
		return "MARKET"
	}
}

func orderTypeFromString(s string) exchanges.OrderType {
	switch s {
	case "MARKET":
		return exchanges.OrderTypeMarket
	case "LIMIT":
		return exchanges.OrderTypeLimit
	case "STOP_MARKET", "STOP":
		return exchanges.OrderTypeStopMarket
	default:
		return exchanges.OrderTypeMarket
	}
}

func orderSideFromString(s string) exchanges.OrderSide {
	if strings.EqualFold(s, "SELL") {
		return exchanges.OrderSideSell
	}
	return exchanges.OrderSideBuy
}

func orderStatusFromString(s string) exchanges.OrderStatus {
	switch s {
	case "NEW":
		return exchanges.OrderStatusNew
	case "PARTIALLY_FILLED":
		return exchanges.OrderStatusPartial
	case "FILLED":
		return exchanges.OrderStatusFilled
	case "CANCELED":
		return exchanges.OrderStatusCanceled
	case "REJECTED":
		return exchanges.OrderStatusRejected
	case "EXPIRED":
		return exchanges.OrderStatusExpired
	default:
		return exchanges.OrderStatusUnknown
	}
}

type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	PriceChangePercent string `json:"priceChangePercent"`
	CloseTime          int64  `json:"closeTime"`
}

func (r *tickerResponse) toTicker() *exchanges.Ticker {
	return &exchanges.Ticker{
		Symbol:       r.Symbol,
		LastPrice:    parseDecimal(r.LastPrice),
		High24h:      parseDecimal(r.HighPrice),
		Low24h:       parseDecimal(r.LowPrice),
		VolumeQuote:  parseDecimal(r.QuoteVolume),
		Change24hPct: parseDecimal(r.PriceChangePercent),
		Timestamp:    time.UnixMilli(r.CloseTime),
	}
}

type positionResponse struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	UnRealizedProfit string `json:"unRealizedProfit"`
	Leverage         string `json:"leverage"`
}

func (r *positionResponse) toPosition() exchanges.Position {
	return exchanges.Position{
		Symbol:        r.Symbol,
		Size:          parseDecimal(r.PositionAmt),
		EntryPrice:    parseDecimal(r.EntryPrice),
		MarkPrice:     parseDecimal(r.MarkPrice),
		Leverage:      parseDecimal(r.Leverage),
		UnrealizedPnL: parseDecimal(r.UnRealizedProfit),
		UpdatedAt:     time.Now(),
	}
}

type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	StopPrice     string `json:"stopPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	AvgPrice      string `json:"avgPrice"`
	ReduceOnly    bool   `json:"reduceOnly"`
	UpdateTime    int64  `json:"updateTime"`
	TransactTime  int64  `json:"transactTime"`
}

func (r *orderResponse) toOrder() exchanges.Order {
	ts := r.UpdateTime
	if ts == 0 {
		ts = r.TransactTime
	}
	return exchanges.Order{
		ID:            strconv.FormatInt(r.OrderID, 10),
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Type:          orderTypeFromString(r.Type),
		Side:          orderSideFromString(r.Side),
		Status:        orderStatusFromString(r.Status),
		Price:         parseDecimal(r.Price),
		StopPrice:     parseDecimal(r.StopPrice),
		Quantity:      parseDecimal(r.OrigQty),
		Filled:        parseDecimal(r.ExecutedQty),
		AvgFillPrice:  parseDecimal(r.AvgPrice),
		ReduceOnly:    r.ReduceOnly,
		CreatedAt:     time.UnixMilli(ts),
		UpdatedAt:     time.UnixMilli(ts),
	}
}
