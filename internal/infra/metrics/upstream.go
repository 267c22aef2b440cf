package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(upstreamRequestsTotal, upstreamRequestDuration, paymentChecksTotal)
}

var (
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_upstream_requests_total",
			Help: "Calls to the shop API by endpoint and HTTP status (\"error\" for transport failures).",
		},
		[]string{"endpoint", "status"},
	)

	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecombot_upstream_request_duration_seconds",
			Help:    "Shop API latency distribution.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	paymentChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecombot_payment_checks_total",
			Help: "Checkout session status lookups by provider and resulting status.",
		},
		[]string{"provider", "status"},
	)
)

func ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(norm(endpoint), statusLabel(status)).Inc()
	upstreamRequestDuration.WithLabelValues(norm(endpoint)).Observe(elapsed.Seconds())
}

func IncPaymentCheck(provider, status string) {
	paymentChecksTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}
