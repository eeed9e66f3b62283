package gathering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

var readyDeps = gathering.DependencySnapshot{EngineAvailable: true, PathingAvailable: true, PathingReady: true}

func disabled(reason gathering.DisableReason, attempts int) *gathering.DisableSnapshot {
	return &gathering.DisableSnapshot{DisableEvent: gathering.DisableEvent{
		Disabled:       true,
		Reason:         reason,
		FailedAttempts: attempts,
	}}
}

func TestEvaluateLadder(t *testing.T) {
	settings := gathering.DefaultSettings()

	tests := []struct {
		name   string
		in     gathering.LadderInput
		rule   string
		action gathering.EscalationAction
	}{
		{
			name:   "operator stop ends the session",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Snapshot: disabled(gathering.DisableReasonOperatorStop, 0), Dependencies: readyDeps, CooldownElapsed: true},
			rule:   "operator-stop",
			action: gathering.ActionStopSession,
		},
		{
			name:   "container full fails the task even in command-only mode",
			in:     gathering.LadderInput{Mode: gathering.ModeCommandOnly, Snapshot: disabled(gathering.DisableReasonContainerFull, 0), Dependencies: readyDeps},
			rule:   "container-full",
			action: gathering.ActionFailTask,
		},
		{
			name:   "missing prerequisite fails the task",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Snapshot: disabled(gathering.DisableReasonMissingPrerequisite, 0), Dependencies: readyDeps},
			rule:   "missing-prerequisite",
			action: gathering.ActionFailTask,
		},
		{
			name:   "repeated failure at target switches to commands",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Snapshot: disabled(gathering.DisableReasonFailedAtTarget, 2), Dependencies: readyDeps, CooldownElapsed: true},
			rule:   "list-path-broken",
			action: gathering.ActionEnterCommandOnly,
		},
		{
			name:   "single failure at target is re-enabled",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Snapshot: disabled(gathering.DisableReasonFailedAtTarget, 1), Dependencies: readyDeps, CooldownElapsed: true},
			rule:   "reenable",
			action: gathering.ActionReenable,
		},
		{
			name:   "nothing to do switches to commands",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Snapshot: disabled(gathering.DisableReasonNothingToDo, 0), Dependencies: readyDeps, CooldownElapsed: true},
			rule:   "list-path-broken",
			action: gathering.ActionEnterCommandOnly,
		},
		{
			name:   "pathing not ready waits",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Snapshot: disabled(gathering.DisableReasonUnknown, 0), Dependencies: gathering.DependencySnapshot{EngineAvailable: true, PathingAvailable: true}, CooldownElapsed: true},
			rule:   "dependency-not-ready",
			action: gathering.ActionWaitDependency,
		},
		{
			name:   "command-only mode delegates opaque disables",
			in:     gathering.LadderInput{Mode: gathering.ModeCommandOnly, Snapshot: disabled(gathering.DisableReasonUnknown, 0), Dependencies: readyDeps, CooldownElapsed: true},
			rule:   "command-only-fallback",
			action: gathering.ActionDelegate,
		},
		{
			name:   "cooldown holds re-enables back",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Dependencies: readyDeps},
			rule:   "cooldown",
			action: gathering.ActionCooldown,
		},
		{
			name:   "first opaque disable re-enables",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Dependencies: readyDeps, CooldownElapsed: true},
			rule:   "reenable",
			action: gathering.ActionReenable,
		},
		{
			name:   "too many re-enables runs a reset cycle",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Dependencies: readyDeps, CooldownElapsed: true, ReenableFailures: 3},
			rule:   "reenable-failures-exceeded",
			action: gathering.ActionResetCycle,
		},
		{
			name:   "exhausted reset cycles switch to commands",
			in:     gathering.LadderInput{Mode: gathering.ModeListDriven, Dependencies: readyDeps, CooldownElapsed: true, ReenableFailures: 3, ResetCycles: 3},
			rule:   "reset-cycles-exhausted",
			action: gathering.ActionEnterCommandOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Settings = settings
			decision := gathering.EvaluateLadder(tt.in)
			assert.Equal(t, tt.rule, decision.Rule)
			assert.Equal(t, tt.action, decision.Action)
		})
	}
}

func TestEvaluateCommandOnly(t *testing.T) {
	settings := gathering.DefaultSettings()

	tests := []struct {
		name   string
		in     gathering.CommandOnlyInput
		action gathering.EscalationAction
	}{
		{"quiet until the interval elapses", gathering.CommandOnlyInput{}, gathering.ActionNone},
		{"nudges on the interval", gathering.CommandOnlyInput{IntervalElapsed: true}, gathering.ActionNudge},
		{"three refusals are tolerated", gathering.CommandOnlyInput{Refusals: 3, IntervalElapsed: true}, gathering.ActionNudge},
		{"direct entry stalls after too many refusals", gathering.CommandOnlyInput{Refusals: 4}, gathering.ActionStall},
		{"ladder entry resets first", gathering.CommandOnlyInput{Refusals: 4, EnteredByLadder: true}, gathering.ActionResetCycle},
		{"ladder entry stalls once its resets are spent", gathering.CommandOnlyInput{Refusals: 4, EnteredByLadder: true, ResetCycles: 3}, gathering.ActionStall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Settings = settings
			assert.Equal(t, tt.action, gathering.EvaluateCommandOnly(tt.in).Action)
		})
	}
}

func TestParseDisableReason(t *testing.T) {
	assert.Equal(t, gathering.DisableReasonContainerFull, gathering.ParseDisableReason("CONTAINER_FULL"))
	assert.Equal(t, gathering.DisableReasonUnknown, gathering.ParseDisableReason("cosmic rays"))
	assert.Equal(t, gathering.DisableReasonUnknown, gathering.ParseDisableReason(""))
}

func TestDisableSnapshot_IsRepeatedFailureAtTarget(t *testing.T) {
	var none *gathering.DisableSnapshot
	assert.False(t, none.IsRepeatedFailureAtTarget())
	assert.False(t, disabled(gathering.DisableReasonFailedAtTarget, 1).IsRepeatedFailureAtTarget())
	assert.True(t, disabled(gathering.DisableReasonFailedAtTarget, 2).IsRepeatedFailureAtTarget())
	assert.False(t, disabled(gathering.DisableReasonUnknown, 5).IsRepeatedFailureAtTarget())
}
