package intel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradecraft/internal/adapters/redis"
	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

const fearGreedCacheKey = "intel:fear_greed"

// FearGreedClient reads the fear/greed index from an alternative.me
// compatible endpoint. Readings change slowly, so successful fetches are
// cached in Redis and served from there until the TTL expires.
type FearGreedClient struct {
	baseURL    string
	cache      *redis.Client
	cacheTTL   time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

// NewFearGreedClient creates the fear/greed index source. cache may be nil.
func NewFearGreedClient(baseURL string, cache *redis.Client, cacheTTL, timeout time.Duration) *FearGreedClient {
	return &FearGreedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      cache,
		cacheTTL:   cacheTTL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Get().With("component", "fear_greed"),
	}
}

// Index returns the current fear/greed reading (0..100).
func (c *FearGreedClient) Index(ctx context.Context) (float64, error) {
	if c.cache != nil {
		var cached float64
		if err := c.cache.Get(ctx, fearGreedCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	body, err := fetchJSON(ctx, c.httpClient, c.baseURL+"/fng/?limit=1")
	if err != nil {
		return 0, err
	}

	var res struct {
		Data []struct {
			Value string `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, errors.Wrap(err, "decode fear/greed response")
	}
	if len(res.Data) == 0 {
		return 0, errors.Wrap(errors.ErrExternal, "fear/greed response has no data")
	}

	value, err := strconv.ParseFloat(res.Data[0].Value, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse fear/greed value")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, fearGreedCacheKey, value, c.cacheTTL); err != nil {
			c.log.Warnw("Failed to cache fear/greed reading", "error", err)
		}
	}

	return value, nil
}

// GlobalMetricsClient reads the 24h total market cap change from a
// CoinGecko-compatible global metrics endpoint.
type GlobalMetricsClient struct {
	url        string
	httpClient *http.Client
}

// NewGlobalMetricsClient creates the global market metrics source
func NewGlobalMetricsClient(url string, timeout time.Duration) *GlobalMetricsClient {
	return &GlobalMetricsClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// MarketCapChange24h returns the 24h change of total crypto market cap
// in percent.
func (c *GlobalMetricsClient) MarketCapChange24h(ctx context.Context) (float64, error) {
	body, err := fetchJSON(ctx, c.httpClient, c.url)
	if err != nil {
		return 0, err
	}

	var res struct {
		Data struct {
			MarketCapChangePct float64 `json:"market_cap_change_percentage_24h_usd"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, errors.Wrap(err, "decode global metrics response")
	}

	return res.Data.MarketCapChangePct, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "http %d from %s", resp.StatusCode, url)
	}

	return body, nil
}
