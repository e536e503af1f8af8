package intel

import "time"

// NetFlow describes the dominant direction of whale capital movement
// relative to exchanges.
type NetFlow string

const (
	NetFlowInflow  NetFlow = "inflow"
	NetFlowOutflow NetFlow = "outflow"
	NetFlowNeutral NetFlow = "neutral"
)

// Trend is the qualitative read of a 0..100 score.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// PriceQuote is the per-symbol market state. Always present for every
// monitored symbol; zero-valued when the fetch failed.
type PriceQuote struct {
	Symbol          string  `json:"symbol"`
	Price           float64 `json:"price"`
	Change24hPct    float64 `json:"change_24h_pct"`
	Volume24h       float64 `json:"volume_24h"`
	RSI14           float64 `json:"rsi_14,omitempty"`
	EMA20           float64 `json:"ema_20,omitempty"`
	IndicatorsValid bool    `json:"indicators_valid,omitempty"`
}

// WhaleTransaction is a single large transfer surfaced to the prompt.
type WhaleTransaction struct {
	Symbol    string    `json:"symbol"`
	AmountUSD float64   `json:"amount_usd"`
	Direction NetFlow   `json:"direction"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// WhaleSummary aggregates recent large transfers for the monitored symbols.
type WhaleSummary struct {
	TotalTransactions  int                `json:"total_transactions"`
	TotalVolumeUSD     float64            `json:"total_volume_usd"`
	NetFlow            NetFlow            `json:"net_flow"`
	Sentiment          Trend              `json:"sentiment"`
	LargestTransaction *WhaleTransaction  `json:"largest_transaction,omitempty"`
	RecentTransactions []WhaleTransaction `json:"recent_transactions"`
	Synthetic          bool               `json:"synthetic"`
	Weight             int                `json:"weight"`
}

// SentimentSummary is the blended 0..100 market mood score.
type SentimentSummary struct {
	Score      float64  `json:"score"`
	Trend      Trend    `json:"trend"`
	Summary    string   `json:"summary"`
	Components []string `json:"components"`
	Weight     int      `json:"weight"`
}

// ScoreTrend maps a 0..100 score to its trend band (>=60 bullish,
// <=40 bearish, else neutral).
func ScoreTrend(score float64) Trend {
	switch {
	case score >= 60:
		return TrendBullish
	case score <= 40:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// NewsArticle is one retained headline.
type NewsArticle struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Categories  string    `json:"categories"`
	PublishedAt time.Time `json:"published_at"`
}

// NewsSummary is the weight-capped view of recent crypto news.
type NewsSummary struct {
	Articles    []NewsArticle `json:"articles"`
	TotalCount  int           `json:"total_count"`
	HasBreaking bool          `json:"has_breaking"`
	Weight      int           `json:"weight"`
}

// MarketSnapshot merges all enabled intelligence sources for one cycle.
// Immutable once built; optional sources are nil when disabled or failed.
type MarketSnapshot struct {
	Timestamp time.Time             `json:"timestamp"`
	Prices    map[string]PriceQuote `json:"prices"`
	Whale     *WhaleSummary         `json:"whale,omitempty"`
	Sentiment *SentimentSummary     `json:"sentiment,omitempty"`
	News      *NewsSummary          `json:"news,omitempty"`
}
