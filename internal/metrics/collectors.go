package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"tradecraft/pkg/logger"
)

// DBCollector reads aggregate pipeline state from PostgreSQL on scrape.
// Counter-style metrics from the process (trades opened, skips) reset on
// restart; these gauges come from the database and survive it.
type DBCollector struct {
	log *logger.Logger
	db  *sqlx.DB

	activeWorkflows *prometheus.Desc
	tradesByStatus  *prometheus.Desc
	signals24h      *prometheus.Desc
	realizedPnL     *prometheus.Desc
}

// NewDBCollector creates a database-backed metrics collector
func NewDBCollector(db *sqlx.DB) *DBCollector {
	return &DBCollector{
		log: logger.Get().With("component", "db_collector"),
		db:  db,

		activeWorkflows: prometheus.NewDesc(
			"tradecraft_workflows_active",
			"Number of enabled workflows",
			nil, nil,
		),
		tradesByStatus: prometheus.NewDesc(
			"tradecraft_trades_by_status",
			"Number of trades by position status",
			[]string{"status"}, nil,
		),
		signals24h: prometheus.NewDesc(
			"tradecraft_signals_24h",
			"Signals recorded in the last 24h",
			nil, nil,
		),
		realizedPnL: prometheus.NewDesc(
			"tradecraft_realized_pnl_total",
			"Sum of realized PnL over all closed trades",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *DBCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeWorkflows
	ch <- c.tradesByStatus
	ch <- c.signals24h
	ch <- c.realizedPnL
}

// Collect implements prometheus.Collector
func (c *DBCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectWorkflows(ctx, ch)
	c.collectTrades(ctx, ch)
	c.collectSignals(ctx, ch)
	c.collectPnL(ctx, ch)
}

func (c *DBCollector) collectWorkflows(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM workflows WHERE enabled = TRUE")
	if err != nil {
		c.log.Warnw("Failed to collect workflow count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.activeWorkflows,
		prometheus.GaugeValue,
		float64(count),
	)
}

func (c *DBCollector) collectTrades(ctx context.Context, ch chan<- prometheus.Metric) {
	type tradeStat struct {
		Status string `db:"position_status"`
		Count  int    `db:"count"`
	}

	var stats []tradeStat
	err := c.db.SelectContext(ctx, &stats, `
		SELECT position_status, COUNT(*) as count
		FROM trades
		WHERE position_status != ''
		GROUP BY position_status
	`)
	if err != nil {
		c.log.Warnw("Failed to collect trade stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(
			c.tradesByStatus,
			prometheus.GaugeValue,
			float64(stat.Count),
			stat.Status,
		)
	}
}

func (c *DBCollector) collectSignals(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	err := c.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM signals
		WHERE created_at > NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		c.log.Warnw("Failed to collect signal count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.signals24h,
		prometheus.GaugeValue,
		float64(count),
	)
}

func (c *DBCollector) collectPnL(ctx context.Context, ch chan<- prometheus.Metric) {
	var pnl float64
	err := c.db.GetContext(ctx, &pnl, `
		SELECT COALESCE(SUM(pnl), 0)
		FROM trades
		WHERE position_status IN ('closed', 'liquidated')
	`)
	if err != nil {
		c.log.Warnw("Failed to collect realized pnl", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.realizedPnL,
		prometheus.GaugeValue,
		pnl,
	)
}

// RegisterDBCollector registers the database-backed collector
func RegisterDBCollector(collector *DBCollector) {
	prometheus.MustRegister(collector)
}
