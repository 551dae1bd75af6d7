package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_bridge_requests_total",
			Help: "Total number of dispatched capability requests",
		},
		[]string{"capability", "outcome"},
	)

	errorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mt5_bridge_errors_total",
			Help: "Total number of requests with a failure outcome",
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mt5_bridge_request_duration_seconds",
			Help:    "Request dispatch duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"capability"},
	)

	activeSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mt5_bridge_active_sessions",
			Help: "Number of live client sessions",
		},
	)
)

// -----------------------------------------------------------------------------

func observeRequest(capability string, outcome Outcome, elapsed time.Duration) {
	requestsTotal.WithLabelValues(capability, string(outcome)).Inc()
	if outcome.IsError() {
		errorsTotal.Inc()
	}
	requestDuration.WithLabelValues(capability).Observe(elapsed.Seconds())
}

// -----------------------------------------------------------------------------

func setActiveSessions(n int64) {
	activeSessionsGauge.Set(float64(n))
}
