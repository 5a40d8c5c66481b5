package metrics

import (
	"net/http"

	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/infrastructure/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the detector
type Metrics struct {
	registry *prometheus.Registry

	runsTotal            *prometheus.CounterVec
	runDuration          prometheus.Histogram
	ringsTotal           *prometheus.CounterVec
	transactionsTotal    prometheus.Counter
	rejectedTotal        prometheus.Counter
	truncationsTotal     *prometheus.CounterVec
	lastFlaggedAccounts  prometheus.Gauge
	lastAnalyzedAccounts prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a private registry
func NewMetrics(cfg *config.MetricsConfig) *Metrics {
	namespace := "ring_detector"
	if cfg != nil && cfg.Namespace != "" {
		namespace = cfg.Namespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_runs_total",
				Help:      "Total number of analysis runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Histogram of analysis run latency (seconds)",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		ringsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rings_detected_total",
				Help:      "Total number of deduplicated rings by pattern",
			},
			[]string{"pattern"},
		),
		transactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_analyzed_total",
			Help:      "Total number of transactions retained for analysis",
		}),
		rejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_rejected_total",
			Help:      "Total number of malformed transactions rejected at the boundary",
		}),
		truncationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detector_truncations_total",
				Help:      "Total number of detector searches cut short by their budget",
			},
			[]string{"detector"},
		),
		lastFlaggedAccounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_flagged_accounts",
			Help:      "Flagged accounts in the most recent run",
		}),
		lastAnalyzedAccounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_accounts",
			Help:      "Accounts in the most recent run",
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.ringsTotal,
		m.transactionsTotal,
		m.rejectedTotal,
		m.truncationsTotal,
		m.lastFlaggedAccounts,
		m.lastAnalyzedAccounts,
		collectors.NewGoCollector(),
	)

	return m
}

// ObserveResult records a completed run
func (m *Metrics) ObserveResult(result *entity.AnalysisResult) {
	m.runsTotal.WithLabelValues("ok").Inc()
	m.runDuration.Observe(result.Summary.ElapsedSeconds)
	m.transactionsTotal.Add(float64(result.Summary.TotalTransactions))
	m.rejectedTotal.Add(float64(result.Summary.SkippedTransactions))
	m.lastFlaggedAccounts.Set(float64(result.Summary.AccountsFlagged))
	m.lastAnalyzedAccounts.Set(float64(result.Summary.AccountsAnalyzed))

	for _, ring := range result.FraudRings {
		m.ringsTotal.WithLabelValues(string(ring.PatternType)).Inc()
	}
	for _, detector := range result.Summary.TruncatedDetectors {
		m.truncationsTotal.WithLabelValues(detector).Inc()
	}
}

// ObserveFailure records a run that did not produce a result
func (m *Metrics) ObserveFailure() {
	m.runsTotal.WithLabelValues("error").Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
