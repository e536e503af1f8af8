package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"tradecraft/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Oracle        OracleConfig
	Exchange      ExchangeConfig
	Intel         IntelConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"tradecraft"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ClickHouseConfig is optional; when Host is empty the intel audit log is
// disabled and snapshots are kept only in memory for the current cycle.
type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"tradecraft"`
}

func (c ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig is optional; with no brokers lifecycle events are not published.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"tradecraft.events"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// TelegramConfig is optional; with no token notifications are skipped.
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// OracleConfig selects and tunes the LLM decision provider.
type OracleConfig struct {
	Provider    string        `envconfig:"ORACLE_PROVIDER" default:"gemini"`
	GeminiKey   string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	OpenAIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	Temperature float64       `envconfig:"ORACLE_TEMPERATURE" default:"0.1"`
	MaxTokens   int           `envconfig:"ORACLE_MAX_TOKENS" default:"4096"`
	Timeout     time.Duration `envconfig:"ORACLE_TIMEOUT" default:"90s"`
	// Requests per minute across all workflows
	RateLimit int `envconfig:"ORACLE_RATE_LIMIT" default:"30"`
}

type ExchangeConfig struct {
	BinanceAPIKey    string        `envconfig:"BINANCE_API_KEY" required:"true"`
	BinanceSecret    string        `envconfig:"BINANCE_SECRET" required:"true"`
	BinanceBaseURL   string        `envconfig:"BINANCE_BASE_URL" default:"https://fapi.binance.com"`
	Testnet          bool          `envconfig:"BINANCE_TESTNET" default:"false"`
	RequestTimeout   time.Duration `envconfig:"EXCHANGE_REQUEST_TIMEOUT" default:"15s"`
	RecvWindow       int64         `envconfig:"EXCHANGE_RECV_WINDOW" default:"5000"`
	MaxRetries       int           `envconfig:"EXCHANGE_MAX_RETRIES" default:"3"`
	RequestsPerMin   int           `envconfig:"EXCHANGE_REQUESTS_PER_MIN" default:"1200"`
	OrdersPerSecond  int           `envconfig:"EXCHANGE_ORDERS_PER_SECOND" default:"10"`
	MinNotionalUSD   float64       `envconfig:"EXCHANGE_MIN_NOTIONAL_USD" default:"5"`
	MaxMarginPercent float64       `envconfig:"EXCHANGE_MAX_MARGIN_PERCENT" default:"95"`
}

func (c ExchangeConfig) BaseURL() string {
	if c.Testnet {
		return "https://testnet.binancefuture.com"
	}
	return c.BinanceBaseURL
}

// IntelConfig tunes the intelligence collectors.
type IntelConfig struct {
	WhaleAlertAPIKey  string        `envconfig:"WHALE_ALERT_API_KEY"`
	WhaleAlertBaseURL string        `envconfig:"WHALE_ALERT_BASE_URL" default:"https://api.whale-alert.io/v1"`
	NewsAPIKey        string        `envconfig:"CRYPTO_NEWS_API_KEY"`
	NewsBaseURL       string        `envconfig:"CRYPTO_NEWS_BASE_URL" default:"https://min-api.cryptocompare.com"`
	FearGreedBaseURL  string        `envconfig:"FEAR_GREED_BASE_URL" default:"https://api.alternative.me"`
	GlobalMetricsURL  string        `envconfig:"GLOBAL_METRICS_URL" default:"https://api.coingecko.com/api/v3/global"`
	FearGreedCacheTTL time.Duration `envconfig:"FEAR_GREED_CACHE_TTL" default:"30m"`
	PriceCacheTTL     time.Duration `envconfig:"PRICE_CACHE_TTL" default:"10m"`
	HTTPTimeout       time.Duration `envconfig:"INTEL_HTTP_TIMEOUT" default:"20s"`
	ScraperScript     string        `envconfig:"SCRAPER_SCRIPT"`
	ScraperTimeout    time.Duration `envconfig:"SCRAPER_TIMEOUT" default:"60s"`
	IndicatorKlines   int           `envconfig:"INDICATOR_KLINES" default:"100"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for the background loops. The decision
// cycle is deliberately coarse (LLM latency and cost), reconciliation is
// fine-grained so closed positions are detected quickly.
type WorkerConfig struct {
	DecisionInterval  time.Duration `envconfig:"WORKER_DECISION_INTERVAL" default:"30m"`
	ReconcileInterval time.Duration `envconfig:"WORKER_RECONCILE_INTERVAL" default:"1m"`

	// Per-strategy confidence floors for opening a position
	ConservativeMinConfidence float64 `envconfig:"STRATEGY_CONSERVATIVE_MIN_CONFIDENCE" default:"0.75"`
	BalancedMinConfidence     float64 `envconfig:"STRATEGY_BALANCED_MIN_CONFIDENCE" default:"0.60"`
	AggressiveMinConfidence   float64 `envconfig:"STRATEGY_AGGRESSIVE_MIN_CONFIDENCE" default:"0.50"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
