package gathering

import (
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// TaskView is a read-only copy of a task
type TaskView struct {
	ItemID           uint32
	ItemName         string
	QuantityNeeded   int
	QuantityObserved int
	Status           domain.TaskStatus
	RetryCount       int
	ErrorMessage     string
}

// StatusSnapshot is an immutable copy of the orchestrator's observable state.
// It is built on the tick goroutine and published whole, never mutated afterwards.
type StatusSnapshot struct {
	SessionID     string
	State         domain.OrchestratorState
	Mode          domain.Mode
	StatusMessage string
	CurrentIndex  int
	Tasks         []TaskView
	TotalGathered int
	HasFailures   bool
	HasSkipped    bool
	StartedAt     time.Time
	FinishedAt    time.Time
	TakenAt       time.Time
}

// CurrentTask returns the task being worked on, if any
func (s *StatusSnapshot) CurrentTask() (TaskView, bool) {
	if s == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tasks) {
		return TaskView{}, false
	}
	return s.Tasks[s.CurrentIndex], true
}

// Counts tallies tasks per status
func (s *StatusSnapshot) Counts() map[domain.TaskStatus]int {
	counts := make(map[domain.TaskStatus]int)
	if s == nil {
		return counts
	}
	for _, t := range s.Tasks {
		counts[t.Status]++
	}
	return counts
}

func viewOf(t *domain.Task) TaskView {
	return TaskView{
		ItemID:           t.ItemID(),
		ItemName:         t.ItemName(),
		QuantityNeeded:   t.QuantityNeeded(),
		QuantityObserved: t.QuantityObserved(),
		Status:           t.Status(),
		RetryCount:       t.RetryCount(),
		ErrorMessage:     t.ErrorMessage(),
	}
}
