package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ex, err := NewClient(Config{APIKey: "key", SecretKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	return ex.(*client)
}

func TestDoRequestCountsAPICalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"50000","highPrice":"51000","lowPrice":"49000","quoteVolume":"1000000","priceChangePercent":"1.5"}`))
	})

	counter := metrics.ExchangeAPICalls.WithLabelValues("binance", "/fapi/v1/ticker/24hr", "200")
	before := testutil.ToFloat64(counter)

	tk, err := c.GetTicker(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", tk.Symbol)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestDoRequestCountsAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	counter := metrics.ExchangeAPICalls.WithLabelValues("binance", "/fapi/v1/ticker/24hr", "400")
	before := testutil.ToFloat64(counter)

	_, err := c.GetTicker(context.Background(), "NOPEUSDT")
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
