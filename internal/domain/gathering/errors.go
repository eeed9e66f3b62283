package gathering

import (
	"fmt"

	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
)

// ErrInvalidTaskTransition indicates an invalid task state transition
type ErrInvalidTaskTransition struct {
	ItemName    string
	From        TaskStatus
	To          TaskStatus
	Description string
}

func (e *ErrInvalidTaskTransition) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invalid task transition for %s: %s -> %s: %s",
			e.ItemName, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("invalid task transition for %s: %s -> %s", e.ItemName, e.From, e.To)
}

// ErrInvalidStateTransition indicates an orchestrator operation was called in the wrong state
type ErrInvalidStateTransition struct {
	Operation string
	State     OrchestratorState
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("cannot %s while orchestrator is %s", e.Operation, e.State)
}

// ErrEngineUnavailable is returned by Start when the dependency monitor reports the
// external engine as missing
type ErrEngineUnavailable struct {
	*shared.DomainError
	BlockReason string
}

func NewEngineUnavailableError(blockReason string) *ErrEngineUnavailable {
	msg := "automation engine is not available"
	if blockReason != "" {
		msg = fmt.Sprintf("%s: %s", msg, blockReason)
	}
	return &ErrEngineUnavailable{
		DomainError: shared.NewDomainError(msg),
		BlockReason: blockReason,
	}
}
