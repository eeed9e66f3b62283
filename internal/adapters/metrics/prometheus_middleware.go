package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
)

// RequestMetrics times control-plane requests dispatched through the mediator
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewRequestMetrics creates the request histogram and counter
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "control",
				Name:      "request_duration_seconds",
				Help:      "Duration of start, stop and status requests",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"request", "status"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "control",
				Name:      "requests_total",
				Help:      "Control-plane requests by type and outcome",
			},
			[]string{"request", "status"},
		),
	}
}

// Register adds the request metrics to the global registry
func (m *RequestMetrics) Register() error {
	return registerAll(m.duration, m.total)
}

// Observe records one finished request
func (m *RequestMetrics) Observe(request string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.duration.WithLabelValues(request, status).Observe(duration.Seconds())
	m.total.WithLabelValues(request, status).Inc()
}

// PrometheusMiddleware records the duration and outcome of every mediator request.
// A nil collector turns it into a pass-through.
func PrometheusMiddleware(m *RequestMetrics) common.Middleware {
	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		if m == nil {
			return next(ctx, request)
		}
		start := time.Now()
		response, err := next(ctx, request)
		m.Observe(requestName(request), time.Since(start), err)
		return response, err
	}
}

// requestName turns "*commands.StartGatheringCommand" into "StartGatheringCommand"
func requestName(request common.Request) string {
	if request == nil {
		return "Unknown"
	}
	name := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
