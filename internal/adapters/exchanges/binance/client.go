package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/adapters/exchanges/ratelimit"
	"tradecraft/internal/adapters/exchanges/retry"
	"tradecraft/internal/metrics"
	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

const (
	futuresBaseURL    = "https://fapi.binance.com"
	futuresTestnetURL = "https://testnet.binancefuture.com"

	defaultRecvWindowMs = 5000
	defaultHTTPTimeout  = 15 * time.Second
)

// Config configures the Binance USDT-M futures client.
type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Testnet   bool

	HTTPClient     *http.Client
	RecvWindow     time.Duration
	MaxRetries     int
	RequestsPerMin int
	OrdersPerSec   int
}

// NewClient creates a new Binance futures adapter.
func NewClient(cfg Config) (exchanges.Exchange, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "binance api key and secret are required")
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = defaultRecvWindowMs * time.Millisecond
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &client{
		cfg:        cfg,
		httpClient: httpClient,
		limiters:   ratelimit.ForBinanceFutures(cfg.RequestsPerMin, cfg.OrdersPerSec),
		retrier:    retry.New(retry.Config{MaxRetries: cfg.MaxRetries}),
		filters:    make(map[string]*exchanges.SymbolFilters),
		log:        logger.Get().With("component", "binance"),
	}, nil
}

type client struct {
	cfg        Config
	httpClient *http.Client
	limiters   *ratelimit.MultiLimiter
	retrier    *retry.Middleware

	// exchangeInfo filters, fetched once and cached for the process lifetime
	filtersMu sync.RWMutex
	filters   map[string]*exchanges.SymbolFilters

	log *logger.Logger
}

func (c *client) Name() string {
	return "binance"
}

func (c *client) GetTicker(ctx context.Context, symbol string) (*exchanges.Ticker, error) {
	params := url.Values{"symbol": []string{NormalizeSymbol(symbol)}}

	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.get(ctx, "/fapi/v1/ticker/24hr", params)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var res tickerResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode ticker")
	}

	return res.toTicker(), nil
}

func (c *client) GetTickers(ctx context.Context, symbols []string) (map[string]*exchanges.Ticker, error) {
	// The full-book endpoint returns every symbol in one request, cheaper
	// than N per-symbol calls once we watch more than a couple of markets.
	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.get(ctx, "/fapi/v1/ticker/24hr", url.Values{})
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var res []tickerResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode tickers")
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[NormalizeSymbol(s)] = true
	}

	out := make(map[string]*exchanges.Ticker, len(symbols))
	for i := range res {
		if wanted[res[i].Symbol] {
			out[res[i].Symbol] = res[i].toTicker()
		}
	}

	return out, nil
}

func (c *client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]exchanges.Kline, error) {
	if limit <= 0 {
		limit = 100
	}

	params := url.Values{
		"symbol":   []string{NormalizeSymbol(symbol)},
		"interval": []string{interval},
		"limit":    []string{strconv.Itoa(limit)},
	}

	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.get(ctx, "/fapi/v1/klines", params)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var raw [][]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode klines")
	}

	candles := make([]exchanges.Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 7 {
			continue
		}
		candles = append(candles, exchanges.Kline{
			Symbol:    NormalizeSymbol(symbol),
			Interval:  interval,
			OpenTime:  time.UnixMilli(toInt64(row[0])),
			CloseTime: time.UnixMilli(toInt64(row[6])),
			Open:      parseDecimal(fmt.Sprint(row[1])),
			High:      parseDecimal(fmt.Sprint(row[2])),
			Low:       parseDecimal(fmt.Sprint(row[3])),
			Close:     parseDecimal(fmt.Sprint(row[4])),
			Volume:    parseDecimal(fmt.Sprint(row[5])),
		})
	}

	return candles, nil
}

func (c *client) GetBalance(ctx context.Context) (*exchanges.Balance, error) {
	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.signed(ctx, http.MethodGet, "/fapi/v2/balance", url.Values{})
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var res []struct {
		Asset     string `json:"asset"`
		Balance   string `json:"balance"`
		Available string `json:"availableBalance"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode balance")
	}

	// USDT-M futures margin is USDT
	for _, b := range res {
		if b.Asset == "USDT" {
			return &exchanges.Balance{
				Total:     parseDecimal(b.Balance),
				Available: parseDecimal(b.Available),
				Currency:  "USDT",
			}, nil
		}
	}

	return &exchanges.Balance{Currency: "USDT"}, nil
}

func (c *client) GetPositions(ctx context.Context) ([]exchanges.Position, error) {
	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.signed(ctx, http.MethodGet, "/fapi/v2/positionRisk", url.Values{})
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var res []positionResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode positions")
	}

	positions := make([]exchanges.Position, 0, len(res))
	for i := range res {
		p := res[i].toPosition()
		if p.Size.IsZero() {
			continue
		}
		positions = append(positions, p)
	}

	return positions, nil
}

func (c *client) GetPosition(ctx context.Context, symbol string) (*exchanges.Position, error) {
	params := url.Values{"symbol": []string{NormalizeSymbol(symbol)}}

	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.signed(ctx, http.MethodGet, "/fapi/v2/positionRisk", params)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var res []positionResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode position")
	}

	for i := range res {
		if res[i].Symbol == NormalizeSymbol(symbol) {
			p := res[i].toPosition()
			return &p, nil
		}
	}

	// Symbol exists but has no exposure; report flat rather than error
	return &exchanges.Position{Symbol: NormalizeSymbol(symbol)}, nil
}

func (c *client) GetOpenOrders(ctx context.Context, symbol string) ([]exchanges.Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", NormalizeSymbol(symbol))
	}

	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.signed(ctx, http.MethodGet, "/fapi/v1/openOrders", params)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var res []orderResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode open orders")
	}

	orders := make([]exchanges.Order, 0, len(res))
	for i := range res {
		orders = append(orders, res[i].toOrder())
	}

	return orders, nil
}

// PlaceOrder submits an order. Never retried: a timed-out submission may
// still have been accepted, and a blind resend would double the position.
func (c *client) PlaceOrder(ctx context.Context, req *exchanges.OrderRequest) (*exchanges.Order, error) {
	if req == nil || req.Quantity.IsZero() {
		return nil, exchanges.ErrInvalidRequest
	}

	if err := c.limiters.Wait(ctx, "order"); err != nil {
		return nil, err
	}

	params := url.Values{
		"symbol": []string{NormalizeSymbol(req.Symbol)},
		"side":   []string{strings.ToUpper(string(req.Side))},
		"type":   []string{mapOrderType(req.Type)},
	}

	params.Set("quantity", req.Quantity.String())
	if !req.Price.IsZero() {
		params.Set("price", req.Price.String())
	}
	if !req.StopPrice.IsZero() {
		params.Set("stopPrice", req.StopPrice.String())
	}
	if req.TimeInForce != "" {
		params.Set("timeInForce", string(req.TimeInForce))
	}
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if req.Type == exchanges.OrderTypeMarket {
		// Return the average fill price in the placement response
		params.Set("newOrderRespType", "RESULT")
	}

	data, err := c.signed(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return nil, err
	}

	var res orderResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode order response")
	}

	order := res.toOrder()
	return &order, nil
}

func (c *client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	params := url.Values{
		"symbol":  []string{NormalizeSymbol(symbol)},
		"orderId": []string{orderID},
	}

	_, err := c.signed(ctx, http.MethodDelete, "/fapi/v1/order", params)
	return err
}

// ClosePosition flattens the current position with a reduce-only market order.
func (c *client) ClosePosition(ctx context.Context, symbol string) error {
	pos, err := c.GetPosition(ctx, symbol)
	if err != nil {
		return err
	}
	if pos.IsFlat() {
		return nil
	}

	side := exchanges.OrderSideSell
	if pos.IsShort() {
		side = exchanges.OrderSideBuy
	}

	_, err = c.PlaceOrder(ctx, &exchanges.OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Type:       exchanges.OrderTypeMarket,
		Quantity:   pos.Size.Abs(),
		ReduceOnly: true,
	})
	return err
}

func (c *client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{
		"symbol":   []string{NormalizeSymbol(symbol)},
		"leverage": []string{strconv.Itoa(leverage)},
	}

	_, err := c.signed(ctx, http.MethodPost, "/fapi/v1/leverage", params)
	return err
}

func (c *client) GetSymbolFilters(ctx context.Context, symbol string) (*exchanges.SymbolFilters, error) {
	norm := NormalizeSymbol(symbol)

	c.filtersMu.RLock()
	if f, ok := c.filters[norm]; ok {
		c.filtersMu.RUnlock()
		return f, nil
	}
	c.filtersMu.RUnlock()

	if err := c.loadExchangeInfo(ctx); err != nil {
		return nil, err
	}

	c.filtersMu.RLock()
	defer c.filtersMu.RUnlock()
	if f, ok := c.filters[norm]; ok {
		return f, nil
	}
	return nil, errors.Wrapf(errors.ErrInvalidSymbol, "no filters for %s", norm)
}

func (c *client) loadExchangeInfo(ctx context.Context) error {
	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.get(ctx, "/fapi/v1/exchangeInfo", url.Values{})
		return reqErr
	})
	if err != nil {
		return err
	}

	var res struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Filters []struct {
				FilterType  string `json:"filterType"`
				StepSize    string `json:"stepSize"`
				MinQty      string `json:"minQty"`
				TickSize    string `json:"tickSize"`
				MinNotional string `json:"notional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return errors.Wrap(err, "decode exchange info")
	}

	c.filtersMu.Lock()
	defer c.filtersMu.Unlock()

	for _, s := range res.Symbols {
		f := &exchanges.SymbolFilters{Symbol: s.Symbol}
		for _, flt := range s.Filters {
			switch flt.FilterType {
			case "LOT_SIZE":
				f.StepSize = parseDecimal(flt.StepSize)
				f.MinQty = parseDecimal(flt.MinQty)
			case "PRICE_FILTER":
				f.TickSize = parseDecimal(flt.TickSize)
			case "MIN_NOTIONAL":
				f.MinNotional = parseDecimal(flt.MinNotional)
			}
		}
		c.filters[s.Symbol] = f
	}

	c.log.Debugw("Loaded exchange info", "symbols", len(res.Symbols))
	return nil
}

func (c *client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, params, false)
}

func (c *client) signed(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	return c.doRequest(ctx, method, path, params, true)
}

func (c *client) doRequest(ctx context.Context, method, path string, params url.Values, signed bool) ([]byte, error) {
	if err := c.limiters.Wait(ctx, "global"); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}

	var body io.Reader
	query := params.Encode()

	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow.Milliseconds(), 10))
		signature := c.sign(params.Encode())
		params.Set("signature", signature)
		query = params.Encode()
	}

	reqURL := c.baseURL() + path

	switch method {
	case http.MethodGet, http.MethodDelete:
		if query != "" {
			reqURL = reqURL + "?" + query
		}
	default:
		body = strings.NewReader(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}

	if signed {
		req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ExchangeAPICalls.WithLabelValues("binance", path, "network_error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.ExchangeAPICalls.WithLabelValues("binance", path, strconv.Itoa(resp.StatusCode)).Inc()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, payload)
	}

	return payload, nil
}

func (c *client) baseURL() string {
	if c.cfg.Testnet {
		return futuresTestnetURL
	}
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return futuresBaseURL
}

func (c *client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	_, _ = mac.Write([]byte(payload))
	return fmt.Sprintf("%x", mac.Sum(nil))
}

func parseAPIError(status int, payload []byte) error {
	apiErr := &exchanges.APIError{Status: status, Message: string(payload)}

	var body struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Code != 0 {
		apiErr.Code = body.Code
		apiErr.Message = body.Msg
	}

	// -1003 too many requests, -1015 too many orders
	if status == http.StatusTooManyRequests || status == 418 || apiErr.Code == -1003 || apiErr.Code == -1015 {
		return fmt.Errorf("%w: %s", exchanges.ErrRateLimited, apiErr.Message)
	}

	return apiErr
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
