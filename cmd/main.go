package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradecraft/internal/adapters/ai"
	"tradecraft/internal/adapters/clickhouse"
	"tradecraft/internal/adapters/config"
	"tradecraft/internal/adapters/errors/noop"
	"tradecraft/internal/adapters/errors/sentry"
	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/adapters/exchanges/binance"
	"tradecraft/internal/adapters/kafka"
	"tradecraft/internal/adapters/postgres"
	"tradecraft/internal/adapters/redis"
	"tradecraft/internal/adapters/telegram"
	"tradecraft/internal/decision"
	"tradecraft/internal/events"
	"tradecraft/internal/executor"
	"tradecraft/internal/intel"
	"tradecraft/internal/metrics"
	"tradecraft/internal/reconciler"
	chrepo "tradecraft/internal/repository/clickhouse"
	pgrepo "tradecraft/internal/repository/postgres"
	"tradecraft/internal/workers"
	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Storage
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	metrics.RegisterDBCollector(metrics.NewDBCollector(pgClient.DB()))

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	workflowRepo := pgrepo.NewWorkflowRepository(pgClient.DB())
	tradeRepo := pgrepo.NewTradeRepository(pgClient.DB())
	signalRepo := pgrepo.NewSignalRepository(pgClient.DB())

	// Optional infrastructure: the pipeline runs without any of these
	auditor := initAuditor(cfg, log)
	publisher := initPublisher(cfg, log)
	notifier := initNotifier(cfg, log)

	// Exchange
	exchange, err := binance.NewClient(binance.Config{
		APIKey:         cfg.Exchange.BinanceAPIKey,
		SecretKey:      cfg.Exchange.BinanceSecret,
		BaseURL:        cfg.Exchange.BaseURL(),
		Testnet:        cfg.Exchange.Testnet,
		HTTPClient:     &http.Client{Timeout: cfg.Exchange.RequestTimeout},
		RecvWindow:     time.Duration(cfg.Exchange.RecvWindow) * time.Millisecond,
		MaxRetries:     cfg.Exchange.MaxRetries,
		RequestsPerMin: cfg.Exchange.RequestsPerMin,
		OrdersPerSec:   cfg.Exchange.OrdersPerSecond,
	})
	if err != nil {
		log.Fatalf("Failed to create Binance client: %v", err)
	}

	// Intelligence collectors
	snapshots := initSnapshots(cfg, exchange, redisClient, auditor)

	// Oracle and decision engine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	oracle, err := ai.NewOracle(ctx, cfg.Oracle)
	if err != nil {
		log.Fatalf("Failed to create oracle: %v", err)
	}
	engine := decision.NewEngine(oracle, decision.Profiles(cfg.Workers))

	// Execution and reconciliation
	sizer := executor.NewSizer(cfg.Exchange.MaxMarginPercent, cfg.Exchange.MinNotionalUSD)

	var tradeNotifier executor.TradeNotifier
	var closeNotifier reconciler.CloseNotifier
	if notifier != nil {
		tradeNotifier = notifier
		closeNotifier = notifier
	}

	orchestrator := executor.NewOrchestrator(exchange, tradeRepo, signalRepo, sizer, tradeNotifier, publisher)
	rec := reconciler.NewReconciler(exchange, tradeRepo, closeNotifier, publisher)

	// Workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewDecisionCycleWorker(
		cfg.Workers.DecisionInterval,
		workflowRepo, snapshots, engine, orchestrator, exchange, signalRepo, publisher,
	))
	scheduler.RegisterWorker(workers.NewReconcileWorker(cfg.Workers.ReconcileInterval, rec))

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	startMetricsServer(cfg, log)

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, publisher, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initAuditor wires the ClickHouse snapshot history when configured
func initAuditor(cfg *config.Config, log *logger.Logger) intel.SnapshotAuditor {
	if !cfg.ClickHouse.Enabled() {
		log.Info("ClickHouse disabled, snapshot audit log off")
		return nil
	}

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Warnf("Failed to connect to ClickHouse, snapshot audit log off: %v", err)
		return nil
	}

	return chrepo.NewIntelRepository(chClient.Conn())
}

// initPublisher wires the Kafka lifecycle event stream when configured.
// A nil publisher is valid everywhere and publishes nothing.
func initPublisher(cfg *config.Config, log *logger.Logger) *events.Publisher {
	if !cfg.Kafka.Enabled() {
		log.Info("Kafka disabled, lifecycle events off")
		return nil
	}

	return events.NewPublisher(kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic))
}

// initNotifier wires Telegram notifications when configured
func initNotifier(cfg *config.Config, log *logger.Logger) *telegram.Notifier {
	if !cfg.Telegram.Enabled() {
		log.Info("Telegram disabled, trade notifications off")
		return nil
	}

	notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Warnf("Failed to create Telegram notifier: %v", err)
		return nil
	}

	return notifier
}

// initSnapshots builds the collector fan-out. Prices always come from the
// exchange; the other sources degrade to nil when their upstream is not
// configured.
func initSnapshots(cfg *config.Config, exchange exchanges.Exchange, cache *redis.Client, auditor intel.SnapshotAuditor) *intel.SnapshotBuilder {
	whale := intel.NewWhaleCollector(intel.NewWhaleAlertFeed(
		cfg.Intel.WhaleAlertAPIKey,
		cfg.Intel.WhaleAlertBaseURL,
		cfg.Intel.HTTPTimeout,
	))

	var social intel.SocialSource
	if cfg.Intel.ScraperScript != "" {
		social = intel.NewScraperClient(cfg.Intel.ScraperScript, cfg.Intel.ScraperTimeout)
	}
	sentiment := intel.NewSentimentCollector(
		intel.NewFearGreedClient(cfg.Intel.FearGreedBaseURL, cache, cfg.Intel.FearGreedCacheTTL, cfg.Intel.HTTPTimeout),
		intel.NewGlobalMetricsClient(cfg.Intel.GlobalMetricsURL, cfg.Intel.HTTPTimeout),
		social,
	)

	news := intel.NewNewsCollector(intel.NewCryptoCompareFeed(
		cfg.Intel.NewsAPIKey,
		cfg.Intel.NewsBaseURL,
		cfg.Intel.HTTPTimeout,
	))

	prices := intel.NewPriceCollector(exchange, cache, cfg.Intel.PriceCacheTTL, cfg.Intel.IndicatorKlines)

	return intel.NewSnapshotBuilder(prices, whale, sentiment, news, auditor)
}

// startMetricsServer exposes Prometheus metrics
func startMetricsServer(cfg *config.Config, log *logger.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	go func() {
		log.Infow("Metrics server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, publisher *events.Publisher, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler stop: %v", err)
	}

	if err := publisher.Close(); err != nil {
		log.Warnf("Failed to close event publisher: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
