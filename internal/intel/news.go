package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"tradecraft/internal/domain/intel"
	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

// breakingMaxAge bounds how old a headline can be and still count as
// breaking news.
const breakingMaxAge = time.Hour

var breakingKeywords = []string{
	"breaking", "urgent", "just in", "alert", "hack", "exploit",
	"halted", "emergency", "crash", "sec charges", "bankruptcy",
}

// categoryPatterns match headline titles for the configurable workflow
// category filter. Unknown category names are ignored.
var categoryPatterns = map[string]*regexp.Regexp{
	"breaking":   regexp.MustCompile(`(?i)\b(breaking|urgent|just in|alert|hack|exploit|halted|emergency|crash|bankruptcy)\b`),
	"regulatory": regexp.MustCompile(`(?i)\b(sec|cftc|regulator\w*|regulation\w*|lawsuit|ban|banned|sanction\w*|compliance|subpoena|charges|etf approval)\b`),
	"analysis":   regexp.MustCompile(`(?i)\b(analysis|analyst\w*|forecast|outlook|prediction|technical|support|resistance|on-chain|report)\b`),
}

// NewsFeed supplies recent crypto news articles.
type NewsFeed interface {
	Fetch(ctx context.Context, currencies []string) ([]intel.NewsArticle, error)
}

// NewsCollector fetches recent headlines and caps how many are surfaced
// to the prompt based on the source weight.
type NewsCollector struct {
	feed NewsFeed
	log  *logger.Logger
}

// NewNewsCollector creates a news collector
func NewNewsCollector(feed NewsFeed) *NewsCollector {
	return &NewsCollector{
		feed: feed,
		log:  logger.Get().With("component", "news_collector"),
	}
}

// Collect fetches recent news for the given symbols, optionally narrowed
// to the given headline categories. Never returns an error: on feed
// failure the summary is empty.
func (c *NewsCollector) Collect(ctx context.Context, symbols []string, weight int, categories []string) *intel.NewsSummary {
	weight = intel.ClampWeight(weight)

	summary := &intel.NewsSummary{Weight: weight}

	articles, err := c.feed.Fetch(ctx, baseCurrencies(symbols))
	if err != nil {
		c.log.Warnw("News feed failed", "error", err)
		return summary
	}

	articles = filterByCategories(articles, categories)

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	summary.TotalCount = len(articles)
	summary.HasBreaking = hasBreakingNews(articles)

	limit := intel.ScaledCount(weight, 40)
	if limit > len(articles) {
		limit = len(articles)
	}
	summary.Articles = articles[:limit]

	c.log.Debugw("News summary built",
		"total", summary.TotalCount,
		"surfaced", len(summary.Articles),
		"breaking", summary.HasBreaking,
	)

	return summary
}

// filterByCategories keeps articles whose title matches at least one of
// the requested category patterns. No recognized categories means no
// filtering.
func filterByCategories(articles []intel.NewsArticle, categories []string) []intel.NewsArticle {
	var patterns []*regexp.Regexp
	for _, cat := range categories {
		if p, ok := categoryPatterns[strings.ToLower(strings.TrimSpace(cat))]; ok {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return articles
	}

	kept := make([]intel.NewsArticle, 0, len(articles))
	for _, a := range articles {
		for _, p := range patterns {
			if p.MatchString(a.Title) {
				kept = append(kept, a)
				break
			}
		}
	}
	return kept
}

// hasBreakingNews reports whether any fresh headline carries a breaking
// news marker.
func hasBreakingNews(articles []intel.NewsArticle) bool {
	cutoff := time.Now().Add(-breakingMaxAge)

	for _, a := range articles {
		if a.PublishedAt.Before(cutoff) {
			continue
		}
		title := strings.ToLower(a.Title)
		for _, kw := range breakingKeywords {
			if strings.Contains(title, kw) {
				return true
			}
		}
	}
	return false
}

// CryptoCompareFeed fetches news from the CryptoCompare news API.
type CryptoCompareFeed struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewCryptoCompareFeed creates the CryptoCompare news feed. The API key
// is optional; without one the public rate limits apply.
func NewCryptoCompareFeed(apiKey, baseURL string, timeout time.Duration) *CryptoCompareFeed {
	if baseURL == "" {
		baseURL = "https://min-api.cryptocompare.com"
	}
	return &CryptoCompareFeed{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the latest English-language articles for the given
// base currencies.
func (f *CryptoCompareFeed) Fetch(ctx context.Context, currencies []string) ([]intel.NewsArticle, error) {
	params := url.Values{"lang": []string{"EN"}}
	if len(currencies) > 0 {
		params.Set("categories", strings.Join(currencies, ","))
	}
	if f.apiKey != "" {
		params.Set("api_key", f.apiKey)
	}

	body, err := fetchJSON(ctx, f.httpClient, f.baseURL+"/data/v2/news/?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var res struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Categories  string `json:"categories"`
			PublishedOn int64  `json:"published_on"`
			SourceInfo  struct {
				Name string `json:"name"`
			} `json:"source_info"`
		} `json:"Data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "decode news response")
	}

	articles := make([]intel.NewsArticle, 0, len(res.Data))
	for _, a := range res.Data {
		articles = append(articles, intel.NewsArticle{
			Title:       a.Title,
			Source:      a.SourceInfo.Name,
			URL:         a.URL,
			Categories:  a.Categories,
			PublishedAt: time.Unix(a.PublishedOn, 0),
		})
	}

	return articles, nil
}
