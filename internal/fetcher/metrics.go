package fetcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors for outbound storefront fetches.
// Exposed by the serve command at /metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RetriesTotal    prometheus.Counter
	RateLimitsTotal prometheus.Counter
}

// NewMetrics registers the fetch instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_fetch_requests_total",
			Help: "Outbound storefront requests by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_fetch_duration_seconds",
			Help:    "Latency of outbound storefront requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_fetch_retries_total",
			Help: "Retry attempts scheduled for outbound requests.",
		},
	)
	rateLimits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_fetch_rate_limits_total",
			Help: "Server-signaled 429 responses.",
		},
	)

	reg.MustRegister(requests, duration, retries, rateLimits)

	return &Metrics{
		RequestsTotal:   requests,
		RequestDuration: duration,
		RetriesTotal:    retries,
		RateLimitsTotal: rateLimits,
	}
}

// IncRequest records a completed request with its outcome label.
func (m *Metrics) IncRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records request latency.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetry records a scheduled retry.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncRateLimit records a 429.
func (m *Metrics) IncRateLimit() {
	if m == nil {
		return
	}
	m.RateLimitsTotal.Inc()
}
