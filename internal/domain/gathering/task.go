package gathering

import "fmt"

// TaskStatus represents the lifecycle status of a gathering task
type TaskStatus string

const (
	// TaskStatusPending - queued, not yet started
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusInProgress - the engine is being driven toward this goal
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"

	// TaskStatusCompleted - observed quantity reached the goal
	TaskStatusCompleted TaskStatus = "COMPLETED"

	// TaskStatusFailed - gave up (unrecoverable reason or retry budget exhausted)
	TaskStatusFailed TaskStatus = "FAILED"

	// TaskStatusSkipped - filtered out before starting
	TaskStatusSkipped TaskStatus = "SKIPPED"
)

// IsTerminal returns true for statuses a task never leaves
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusSkipped
}

// Task is a single acquisition goal: gather quantityNeeded more units of one item.
//
// quantityObserved counts units gained since the session baseline. It is only ever
// raised, so quantityRemaining never grows back after a stale-cache correction.
//
// State Machine:
//
//	PENDING -> IN_PROGRESS -> COMPLETED
//	        \              \-> FAILED
//	         \-> SKIPPED
type Task struct {
	itemID         uint32
	itemName       string
	quantityNeeded int

	quantityObserved int
	status           TaskStatus
	retryCount       int
	errorMessage     string
}

// NewTask creates a pending task. Negative quantities are clamped to zero.
func NewTask(itemID uint32, itemName string, quantityNeeded int) *Task {
	if quantityNeeded < 0 {
		quantityNeeded = 0
	}
	return &Task{
		itemID:         itemID,
		itemName:       itemName,
		quantityNeeded: quantityNeeded,
		status:         TaskStatusPending,
	}
}

// Getters

func (t *Task) ItemID() uint32         { return t.itemID }
func (t *Task) ItemName() string       { return t.itemName }
func (t *Task) QuantityNeeded() int    { return t.quantityNeeded }
func (t *Task) QuantityObserved() int  { return t.quantityObserved }
func (t *Task) Status() TaskStatus     { return t.status }
func (t *Task) RetryCount() int        { return t.retryCount }
func (t *Task) ErrorMessage() string   { return t.errorMessage }
func (t *Task) IsTerminal() bool       { return t.status.IsTerminal() }

// QuantityRemaining returns how many units are still missing (never negative)
func (t *Task) QuantityRemaining() int {
	remaining := t.quantityNeeded - t.quantityObserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsComplete returns true once nothing remains to gather
func (t *Task) IsComplete() bool {
	return t.QuantityRemaining() == 0
}

// State transitions

// Begin transitions PENDING -> IN_PROGRESS
func (t *Task) Begin() error {
	if t.status != TaskStatusPending {
		return t.transitionError(TaskStatusInProgress, "task must be pending")
	}
	t.status = TaskStatusInProgress
	return nil
}

// Complete transitions IN_PROGRESS -> COMPLETED
func (t *Task) Complete() error {
	if t.status != TaskStatusInProgress {
		return t.transitionError(TaskStatusCompleted, "task must be in progress")
	}
	t.status = TaskStatusCompleted
	return nil
}

// Fail transitions a non-terminal task to FAILED
func (t *Task) Fail(message string) error {
	if t.status.IsTerminal() {
		return t.transitionError(TaskStatusFailed, "task already finished")
	}
	t.status = TaskStatusFailed
	t.errorMessage = message
	return nil
}

// Skip transitions PENDING -> SKIPPED without touching the retry budget
func (t *Task) Skip(message string) error {
	if t.status != TaskStatusPending {
		return t.transitionError(TaskStatusSkipped, "only pending tasks can be skipped")
	}
	t.status = TaskStatusSkipped
	t.errorMessage = message
	return nil
}

// RecordObserved raises the observed quantity to gained if it is higher.
// Returns true when the observed quantity increased.
func (t *Task) RecordObserved(gained int) bool {
	if gained <= t.quantityObserved {
		return false
	}
	t.quantityObserved = gained
	return true
}

// IncrementRetry bumps the retry counter and returns the new value
func (t *Task) IncrementRetry() int {
	t.retryCount++
	return t.retryCount
}

func (t *Task) transitionError(to TaskStatus, description string) error {
	return &ErrInvalidTaskTransition{
		ItemName:    t.itemName,
		From:        t.status,
		To:          to,
		Description: description,
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("Task(%s %d/%d %s)", t.itemName, t.quantityObserved, t.quantityNeeded, t.status)
}
