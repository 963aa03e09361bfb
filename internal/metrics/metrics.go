// Package metrics provides Prometheus metrics for the seller dashboard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellerdash_backend_requests_total",
			Help: "Total number of requests sent to the marketplace backend",
		},
		[]string{"endpoint", "outcome"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sellerdash_backend_request_duration_seconds",
			Help:    "Marketplace backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	staleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellerdash_stale_responses_total",
			Help: "Item-set responses discarded because a newer fetch was dispatched",
		},
		[]string{"mode"},
	)

	liveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sellerdash_live_sessions",
			Help: "Number of dashboard sessions held in memory",
		},
	)
)

// Outcome labels for backend requests.
const (
	OutcomeOK       = "ok"
	OutcomeAPIError = "api_error"
	OutcomeNetwork  = "network_error"
	OutcomeDecode   = "decode_error"
)

// ObserveBackend records one backend call.
func ObserveBackend(endpoint, outcome string, d time.Duration) {
	backendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	backendRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordStale records a discarded out-of-order response.
func RecordStale(mode string) {
	staleResponsesTotal.WithLabelValues(mode).Inc()
}

// SetLiveSessions sets the in-memory session gauge.
func SetLiveSessions(n int) {
	liveSessions.Set(float64(n))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
