package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradecraft_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradecraft_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	CycleSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_cycle_skips_total",
			Help: "Decision cycles skipped because the previous one was still running",
		},
		[]string{"worker"},
	)

	// Oracle metrics
	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_oracle_calls_total",
			Help: "Total number of oracle invocations",
		},
		[]string{"provider", "status"}, // status: success|error
	)

	OracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradecraft_oracle_latency_seconds",
			Help:    "Oracle invocation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// Collector metrics
	CollectorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_collector_runs_total",
			Help: "Total number of intelligence collector runs",
		},
		[]string{"collector", "status"}, // status: success|soft_fail
	)

	// Exchange metrics
	ExchangeAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_exchange_api_calls_total",
			Help: "Total number of exchange API calls",
		},
		[]string{"exchange", "endpoint", "status"},
	)

	// Trading metrics
	TradesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_trades_opened_total",
			Help: "Total number of opened trades",
		},
		[]string{"symbol", "side"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_trades_closed_total",
			Help: "Total number of closed trades",
		},
		[]string{"symbol", "reason"},
	)

	ExecutionSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecraft_execution_skips_total",
			Help: "Decisions gated out before order placement",
		},
		[]string{"reason"}, // hold|low_confidence|zero_allocation|below_minimum
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradecraft_positions_open_count",
			Help: "Current number of locally-open positions",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)
	prometheus.MustRegister(CycleSkips)

	prometheus.MustRegister(OracleCalls)
	prometheus.MustRegister(OracleLatency)

	prometheus.MustRegister(CollectorRuns)
	prometheus.MustRegister(ExchangeAPICalls)

	prometheus.MustRegister(TradesOpened)
	prometheus.MustRegister(TradesClosed)
	prometheus.MustRegister(ExecutionSkips)
	prometheus.MustRegister(PositionsOpen)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordOracleCall records an oracle invocation
func RecordOracleCall(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	OracleCalls.WithLabelValues(provider, status).Inc()
	OracleLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordCollectorRun records a collector outcome
func RecordCollectorRun(collector string, softFailed bool) {
	status := "success"
	if softFailed {
		status = "soft_fail"
	}
	CollectorRuns.WithLabelValues(collector, status).Inc()
}
