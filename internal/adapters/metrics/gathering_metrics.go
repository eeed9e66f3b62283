package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// GatheringCollector implements the orchestrator's MetricsRecorder on Prometheus
type GatheringCollector struct {
	tasksTotal      *prometheus.CounterVec
	taskRetries     *prometheus.HistogramVec
	itemsGathered   *prometheus.CounterVec
	escalations     *prometheus.CounterVec
	resetCycles     prometheus.Counter
	stalls          *prometheus.CounterVec
	sessionsTotal   *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
}

// NewGatheringCollector creates the orchestrator metrics
func NewGatheringCollector() *GatheringCollector {
	return &GatheringCollector{
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_total",
				Help:      "Finished gathering tasks by final status",
			},
			[]string{"status"},
		),
		taskRetries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "task_retries",
				Help:      "Stall restarts spent per finished task",
				Buckets:   []float64{0, 1, 2, 3, 5, 10},
			},
			[]string{"status"},
		),
		itemsGathered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "items_gathered_total",
				Help:      "Units observed in the inventory since the session baseline",
			},
			[]string{"item"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "escalations_total",
				Help:      "Escalation actions taken, by action and matching rule",
			},
			[]string{"action", "rule"},
		),
		resetCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reset_cycles_total",
				Help:      "Forced engine resets",
			},
		),
		stalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stalls_total",
				Help:      "Detected stalls by kind",
			},
			[]string{"kind"},
		),
		sessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_total",
				Help:      "Finished sessions by end state",
			},
			[]string{"state"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "session_duration_seconds",
				Help:      "Session duration distribution",
				Buckets:   []float64{10, 60, 300, 600, 1800, 3600, 7200},
			},
			[]string{"state"},
		),
	}
}

// Register adds every gathering metric to the global registry
func (c *GatheringCollector) Register() error {
	return registerAll(
		c.tasksTotal,
		c.taskRetries,
		c.itemsGathered,
		c.escalations,
		c.resetCycles,
		c.stalls,
		c.sessionsTotal,
		c.sessionDuration,
	)
}

func (c *GatheringCollector) RecordTaskFinished(itemName string, status domain.TaskStatus, retries int) {
	c.tasksTotal.WithLabelValues(string(status)).Inc()
	c.taskRetries.WithLabelValues(string(status)).Observe(float64(retries))
}

func (c *GatheringCollector) RecordItemsGathered(itemName string, units int) {
	if units <= 0 {
		return
	}
	c.itemsGathered.WithLabelValues(itemName).Add(float64(units))
}

func (c *GatheringCollector) RecordEscalation(action domain.EscalationAction, rule string) {
	c.escalations.WithLabelValues(string(action), rule).Inc()
	if action == domain.ActionResetCycle {
		c.resetCycles.Inc()
	}
}

func (c *GatheringCollector) RecordStall(kind string) {
	c.stalls.WithLabelValues(kind).Inc()
}

func (c *GatheringCollector) RecordSessionFinished(state domain.OrchestratorState, duration time.Duration) {
	c.sessionsTotal.WithLabelValues(string(state)).Inc()
	c.sessionDuration.WithLabelValues(string(state)).Observe(duration.Seconds())
}
