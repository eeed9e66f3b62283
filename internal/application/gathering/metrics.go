package gathering

import (
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// MetricsRecorder receives orchestrator events for metrics collection
type MetricsRecorder interface {
	RecordTaskFinished(itemName string, status domain.TaskStatus, retries int)
	RecordItemsGathered(itemName string, units int)
	RecordEscalation(action domain.EscalationAction, rule string)
	RecordStall(kind string)
	RecordSessionFinished(state domain.OrchestratorState, duration time.Duration)
}

type noOpMetrics struct{}

func (noOpMetrics) RecordTaskFinished(string, domain.TaskStatus, int)             {}
func (noOpMetrics) RecordItemsGathered(string, int)                               {}
func (noOpMetrics) RecordEscalation(domain.EscalationAction, string)              {}
func (noOpMetrics) RecordStall(string)                                            {}
func (noOpMetrics) RecordSessionFinished(domain.OrchestratorState, time.Duration) {}
