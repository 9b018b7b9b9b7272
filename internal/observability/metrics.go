package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	contactSubmissions  *prometheus.CounterVec
	contactExports      *prometheus.CounterVec
	contactStoreSeconds *prometheus.HistogramVec
	trackedClientsOnce  sync.Once
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		contactSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome.",
		}, []string{"outcome"})

		contactExports = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_exports_total",
			Help: "Contact exports by format and result.",
		}, []string{"format", "result"})

		contactStoreSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contact_store_duration_seconds",
			Help:    "Time spent in contact store operations.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}, []string{"op"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, contactSubmissions, contactExports, contactStoreSeconds)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// ContactSubmissions exposes the submission outcome counter.
func ContactSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return contactSubmissions
}

// ContactExports exposes the export counter.
func ContactExports() *prometheus.CounterVec {
	RegisterMetrics()
	return contactExports
}

// ContactStoreLatency exposes the store operation histogram.
func ContactStoreLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return contactStoreSeconds
}

// TrackRateLimitClients publishes count as the number of clients held by the submission
// cool-down. Only the first call registers the gauge.
func TrackRateLimitClients(count func() int) {
	trackedClientsOnce.Do(func() {
		prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "contact_rate_limit_tracked_clients",
			Help: "Number of clients currently held by the submission cool-down.",
		}, func() float64 {
			return float64(count())
		}))
	})
}
