package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BridgeMetricsCollector records traffic between the daemon and the host plugin
type BridgeMetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	rateLimitWait   *prometheus.HistogramVec
}

// NewBridgeMetricsCollector creates a new bridge metrics collector
func NewBridgeMetricsCollector() *BridgeMetricsCollector {
	return &BridgeMetricsCollector{
		// Status code 0 means the request never got an answer
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "requests_total",
				Help:      "Total number of host bridge requests by method, endpoint, and status code",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "request_duration_seconds",
				Help:      "Host bridge request duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
			},
			[]string{"method", "endpoint"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "retries_total",
				Help:      "Total number of host bridge retry attempts",
			},
			[]string{"method", "endpoint", "reason"},
		),

		rateLimitWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "rate_limit_wait_seconds",
				Help:      "Time spent waiting for the bridge rate limiter",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Register registers all bridge metrics with the Prometheus registry
func (c *BridgeMetricsCollector) Register() error {
	return registerAll(
		c.requestsTotal,
		c.requestDuration,
		c.retries,
		c.rateLimitWait,
	)
}

// RecordRequest records one HTTP exchange with the host
func (c *BridgeMetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRetry records a retry attempt
func (c *BridgeMetricsCollector) RecordRetry(method, endpoint, reason string) {
	c.retries.WithLabelValues(method, endpoint, reason).Inc()
}

// RecordRateLimitWait records time spent waiting for the rate limiter
func (c *BridgeMetricsCollector) RecordRateLimitWait(method, endpoint string, duration time.Duration) {
	c.rateLimitWait.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
