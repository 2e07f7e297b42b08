package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var metricsOnce struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP collectors on the default registry. Repeated
// calls (e.g. multiple servers in tests) share the same collectors.
func NewMetrics() *Metrics {
	if metricsOnce.requestsTotal == nil {
		metricsOnce.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_http_requests_total",
			Help: "Number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"})
		metricsOnce.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskmanager_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})
		prometheus.MustRegister(metricsOnce.requestsTotal, metricsOnce.requestDuration)
	}
	return &Metrics{
		requestsTotal:   metricsOnce.requestsTotal,
		requestDuration: metricsOnce.requestDuration,
	}
}

// ObserveRequest records one handled request. route is the registered mux
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
