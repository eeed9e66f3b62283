package gathering

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when no finished session has the requested id
var ErrSessionNotFound = errors.New("session not found")

// TaskRecord is the final outcome of one queued task
type TaskRecord struct {
	Position         int
	ItemID           uint32
	ItemName         string
	QuantityNeeded   int
	QuantityObserved int
	Status           TaskStatus
	RetryCount       int
	ErrorMessage     string
}

// SessionRecord is the persisted summary of a finished gathering session
type SessionRecord struct {
	SessionID     string
	State         OrchestratorState
	StatusMessage string
	StartedAt     time.Time
	FinishedAt    time.Time
	TotalGathered int
	Tasks         []TaskRecord
}

// Counts tallies task outcomes
func (r *SessionRecord) Counts() (completed, failed, skipped int) {
	for _, t := range r.Tasks {
		switch t.Status {
		case TaskStatusCompleted:
			completed++
		case TaskStatusFailed:
			failed++
		case TaskStatusSkipped:
			skipped++
		}
	}
	return completed, failed, skipped
}

// SessionRepository stores finished sessions
type SessionRepository interface {
	Save(ctx context.Context, record *SessionRecord) error
	FindByID(ctx context.Context, sessionID string) (*SessionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*SessionRecord, error)
}
