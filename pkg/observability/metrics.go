// Package observability exposes Prometheus metrics, health checks, and the
// ops HTTP endpoint for the counselling memory service.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Memory store metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "counsellor_memory_active_sessions",
			Help: "Number of sessions currently held in memory",
		},
	)

	appendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counsellor_memory_appends_total",
			Help: "Total number of messages appended to session memory",
		},
		[]string{"role"},
	)

	compactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counsellor_memory_compactions_total",
			Help: "Total number of window compactions",
		},
		[]string{"outcome"},
	)

	expiredSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "counsellor_memory_expired_sessions_total",
			Help: "Total number of sessions removed by the idle sweep",
		},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "counsellor_memory_sweep_duration_seconds",
			Help:    "Idle sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Summarizer metrics
	summarizationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "counsellor_summarization_duration_seconds",
			Help:    "Summarization call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus metrics. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			activeSessions,
			appendsTotal,
			compactionsTotal,
			expiredSessionsTotal,
			sweepDuration,
			summarizationDuration,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// SetActiveSessions sets the active session gauge.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// RecordAppend records one appended message.
func RecordAppend(role string) {
	appendsTotal.WithLabelValues(role).Inc()
}

// RecordCompaction records one window compaction with its outcome
// ("ok", "fallback", "disabled").
func RecordCompaction(outcome string) {
	compactionsTotal.WithLabelValues(outcome).Inc()
}

// RecordSweep records the result of one idle sweep.
func RecordSweep(removed, active int, duration time.Duration) {
	expiredSessionsTotal.Add(float64(removed))
	activeSessions.Set(float64(active))
	sweepDuration.Observe(duration.Seconds())
}

// ObserveSummarization records one summarization call.
func ObserveSummarization(duration time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	summarizationDuration.WithLabelValues(status).Observe(duration.Seconds())
}
