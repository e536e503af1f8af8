package intel

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/errors"
)

const (
	// Feed window and floor for "whale-sized" transfers
	whaleFeedLookback  = time.Hour
	whaleFeedMinUSD    = 500000
	whaleFeedFetchSize = 100
)

// WhaleAlertFeed fetches large transfers from a Whale-Alert-compatible API.
// With no API key configured every Fetch reports synthetic data.
type WhaleAlertFeed struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewWhaleAlertFeed creates the HTTP whale transfer feed
func NewWhaleAlertFeed(apiKey, baseURL string, timeout time.Duration) *WhaleAlertFeed {
	if baseURL == "" {
		baseURL = "https://api.whale-alert.io/v1"
	}
	return &WhaleAlertFeed{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns recent transfers for the given base currencies. The bool
// result reports whether the data is synthetic.
func (f *WhaleAlertFeed) Fetch(ctx context.Context, currencies []string) ([]intel.WhaleTransaction, bool, error) {
	if f.apiKey == "" {
		return syntheticTransactions(currencies), true, nil
	}

	params := url.Values{
		"api_key":   []string{f.apiKey},
		"min_value": []string{strconv.Itoa(whaleFeedMinUSD)},
		"start":     []string{strconv.FormatInt(time.Now().Add(-whaleFeedLookback).Unix(), 10)},
		"limit":     []string{strconv.Itoa(whaleFeedFetchSize)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/transactions?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Wrapf(errors.ErrExternal, "whale feed http %d", resp.StatusCode)
	}

	var res struct {
		Result       string `json:"result"`
		Transactions []struct {
			Symbol    string  `json:"symbol"`
			AmountUSD float64 `json:"amount_usd"`
			Timestamp int64   `json:"timestamp"`
			From      struct {
				Owner     string `json:"owner"`
				OwnerType string `json:"owner_type"`
			} `json:"from"`
			To struct {
				Owner     string `json:"owner"`
				OwnerType string `json:"owner_type"`
			} `json:"to"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, false, errors.Wrap(err, "decode whale feed")
	}
	if res.Result != "success" {
		return nil, false, errors.Wrapf(errors.ErrExternal, "whale feed result %q", res.Result)
	}

	wanted := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		wanted[strings.ToUpper(c)] = true
	}

	txs := make([]intel.WhaleTransaction, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		if len(wanted) > 0 && !wanted[strings.ToUpper(t.Symbol)] {
			continue
		}
		txs = append(txs, intel.WhaleTransaction{
			Symbol:    strings.ToUpper(t.Symbol),
			AmountUSD: t.AmountUSD,
			Direction: classifyTransfer(t.From.OwnerType, t.To.OwnerType),
			From:      ownerLabel(t.From.Owner, t.From.OwnerType),
			To:        ownerLabel(t.To.Owner, t.To.OwnerType),
			Timestamp: time.Unix(t.Timestamp, 0),
		})
	}

	return txs, false, nil
}

// classifyTransfer maps exchange-ownership metadata to a flow direction.
// Exchange-to-exchange and wallet-to-wallet transfers are neutral.
func classifyTransfer(fromType, toType string) intel.NetFlow {
	fromExchange := fromType == "exchange"
	toExchange := toType == "exchange"

	switch {
	case toExchange && !fromExchange:
		return intel.NetFlowInflow
	case fromExchange && !toExchange:
		return intel.NetFlowOutflow
	default:
		return intel.NetFlowNeutral
	}
}

func ownerLabel(owner, ownerType string) string {
	if owner != "" {
		return owner
	}
	if ownerType != "" {
		return ownerType
	}
	return "unknown wallet"
}

// baseCurrencies strips the quote asset from canonical futures symbols
// (BTCUSDT -> BTC).
func baseCurrencies(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))

	for _, s := range symbols {
		base := strings.ToUpper(s)
		for _, quote := range []string{"USDT", "USDC", "BUSD", "USD"} {
			if strings.HasSuffix(base, quote) && len(base) > len(quote) {
				base = strings.TrimSuffix(base, quote)
				break
			}
		}
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}

	return out
}

// syntheticTransactions fabricates a plausible transfer set so the
// pipeline keeps exercising the whale path without feed access.
func syntheticTransactions(currencies []string) []intel.WhaleTransaction {
	if len(currencies) == 0 {
		currencies = []string{"BTC"}
	}

	now := time.Now()
	txs := make([]intel.WhaleTransaction, 0, 8)

	for i := 0; i < 8; i++ {
		currency := currencies[i%len(currencies)]
		amount := float64(1000000 + rand.Intn(9000000))

		direction := intel.NetFlowInflow
		from, to := "unknown wallet", "binance"
		if i%2 == 0 {
			direction = intel.NetFlowOutflow
			from, to = "binance", "unknown wallet"
		}

		txs = append(txs, intel.WhaleTransaction{
			Symbol:    currency,
			AmountUSD: amount,
			Direction: direction,
			From:      from,
			To:        to,
			Timestamp: now.Add(-time.Duration(i*7) * time.Minute),
		})
	}

	return txs
}
