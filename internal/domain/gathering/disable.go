package gathering

import "time"

// DisableReason is the engine's best-effort classification of why it stopped
type DisableReason string

const (
	DisableReasonUnknown             DisableReason = "UNKNOWN"
	DisableReasonOperatorStop        DisableReason = "OPERATOR_STOP"
	DisableReasonContainerFull       DisableReason = "CONTAINER_FULL"
	DisableReasonMissingPrerequisite DisableReason = "MISSING_PREREQUISITE"
	DisableReasonFailedAtTarget      DisableReason = "FAILED_AT_TARGET"
	DisableReasonNothingToDo         DisableReason = "NOTHING_TO_DO"
)

// ParseDisableReason maps a wire string to a reason, falling back to UNKNOWN
func ParseDisableReason(s string) DisableReason {
	switch r := DisableReason(s); r {
	case DisableReasonOperatorStop, DisableReasonContainerFull, DisableReasonMissingPrerequisite,
		DisableReasonFailedAtTarget, DisableReasonNothingToDo:
		return r
	default:
		return DisableReasonUnknown
	}
}

// DisableEvent is what the engine reports when it toggles
type DisableEvent struct {
	Disabled bool
	Reason   DisableReason
	Status   string // free-text last-known status line

	// FailedAttempts is the engine's own counter of consecutive failures at a target
	FailedAttempts int
}

// DisableSnapshot is the last disable event the orchestrator has not yet acted on
type DisableSnapshot struct {
	DisableEvent
	ObservedAt time.Time
}

// RepeatedFailureThreshold is the FailedAttempts value at which a
// FAILED_AT_TARGET disable counts as repeated
const RepeatedFailureThreshold = 2

// IsRepeatedFailureAtTarget reports whether the engine keeps failing at the same target
func (s *DisableSnapshot) IsRepeatedFailureAtTarget() bool {
	return s != nil && s.Reason == DisableReasonFailedAtTarget && s.FailedAttempts >= RepeatedFailureThreshold
}
