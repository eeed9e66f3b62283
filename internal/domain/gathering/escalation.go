package gathering

// EscalationAction is what the orchestrator does about a stalled or disabled engine
type EscalationAction string

const (
	ActionNone             EscalationAction = "NONE"
	ActionStopSession      EscalationAction = "STOP_SESSION"
	ActionFailTask         EscalationAction = "FAIL_TASK"
	ActionEnterCommandOnly EscalationAction = "ENTER_COMMAND_ONLY"
	ActionWaitDependency   EscalationAction = "WAIT_DEPENDENCY"
	ActionCooldown         EscalationAction = "COOLDOWN"
	ActionReenable         EscalationAction = "REENABLE"
	ActionResetCycle       EscalationAction = "RESET_CYCLE"
	ActionNudge            EscalationAction = "NUDGE"
	ActionDelegate         EscalationAction = "DELEGATE_COMMAND_ONLY"
	ActionStall            EscalationAction = "STALL"
)

// LadderInput is everything the escalation ladder looks at when the engine is disabled
type LadderInput struct {
	Mode             Mode
	Snapshot         *DisableSnapshot
	Dependencies     DependencySnapshot
	CooldownElapsed  bool
	ReenableFailures int
	ResetCycles      int
	Settings         Settings
}

func (in LadderInput) reason() DisableReason {
	if in.Snapshot == nil {
		return DisableReasonUnknown
	}
	return in.Snapshot.Reason
}

// nextAttemptExceedsLimit reports whether one more re-enable would pass the failure threshold
func (in LadderInput) nextAttemptExceedsLimit() bool {
	return in.ReenableFailures+1 > in.Settings.MaxReenableFailures
}

// EscalationRule is one row of an ordered decision table
type EscalationRule[T any] struct {
	Name    string
	Applies func(T) bool
	Action  EscalationAction
}

// Decision is the first matching rule of a table
type Decision struct {
	Rule   string
	Action EscalationAction
}

func evaluate[T any](rules []EscalationRule[T], in T) Decision {
	for _, rule := range rules {
		if rule.Applies(in) {
			return Decision{Rule: rule.Name, Action: rule.Action}
		}
	}
	return Decision{Rule: "none", Action: ActionNone}
}

// LadderRules is ordered from the cheapest, most specific remedy to the most generic.
// Rows 1-3 and the dependency wait apply in both modes; the rest only drive list mode.
var LadderRules = []EscalationRule[LadderInput]{
	{
		Name:    "operator-stop",
		Applies: func(in LadderInput) bool { return in.reason() == DisableReasonOperatorStop },
		Action:  ActionStopSession,
	},
	{
		Name:    "container-full",
		Applies: func(in LadderInput) bool { return in.reason() == DisableReasonContainerFull },
		Action:  ActionFailTask,
	},
	{
		Name:    "missing-prerequisite",
		Applies: func(in LadderInput) bool { return in.reason() == DisableReasonMissingPrerequisite },
		Action:  ActionFailTask,
	},
	{
		Name: "list-path-broken",
		Applies: func(in LadderInput) bool {
			return in.Mode == ModeListDriven &&
				(in.Snapshot.IsRepeatedFailureAtTarget() || in.reason() == DisableReasonNothingToDo)
		},
		Action: ActionEnterCommandOnly,
	},
	{
		Name:    "dependency-not-ready",
		Applies: func(in LadderInput) bool { return !in.Dependencies.Ready() },
		Action:  ActionWaitDependency,
	},
	{
		Name:    "command-only-fallback",
		Applies: func(in LadderInput) bool { return in.Mode == ModeCommandOnly },
		Action:  ActionDelegate,
	},
	{
		Name:    "cooldown",
		Applies: func(in LadderInput) bool { return !in.CooldownElapsed },
		Action:  ActionCooldown,
	},
	{
		Name: "reset-cycles-exhausted",
		Applies: func(in LadderInput) bool {
			return in.nextAttemptExceedsLimit() && in.ResetCycles >= in.Settings.ResetCyclesBeforeCommandOnly
		},
		Action: ActionEnterCommandOnly,
	},
	{
		Name:    "reenable-failures-exceeded",
		Applies: func(in LadderInput) bool { return in.nextAttemptExceedsLimit() },
		Action:  ActionResetCycle,
	},
	{
		Name:    "reenable",
		Applies: func(LadderInput) bool { return true },
		Action:  ActionReenable,
	},
}

// EvaluateLadder picks the remedy for a disabled engine
func EvaluateLadder(in LadderInput) Decision {
	return evaluate(LadderRules, in)
}

// CommandOnlyInput is what the command-only fallback looks at on every tick
type CommandOnlyInput struct {
	Refusals        int
	ResetCycles     int
	EnteredByLadder bool
	IntervalElapsed bool
	Settings        Settings
}

func (in CommandOnlyInput) refusalsExceeded() bool {
	return in.Refusals > in.Settings.MaxCommandRefusals
}

// CommandOnlyRules drive the degraded mode. A direct entry gives up as soon as the
// engine keeps refusing; a ladder entry gets its own reset cycles first.
var CommandOnlyRules = []EscalationRule[CommandOnlyInput]{
	{
		Name:    "refused-direct-entry",
		Applies: func(in CommandOnlyInput) bool { return in.refusalsExceeded() && !in.EnteredByLadder },
		Action:  ActionStall,
	},
	{
		Name: "command-only-resets-exhausted",
		Applies: func(in CommandOnlyInput) bool {
			return in.refusalsExceeded() && in.ResetCycles >= in.Settings.CommandOnlyResetCycles
		},
		Action: ActionStall,
	},
	{
		Name:    "command-only-reset",
		Applies: func(in CommandOnlyInput) bool { return in.refusalsExceeded() },
		Action:  ActionResetCycle,
	},
	{
		Name:    "nudge-interval",
		Applies: func(in CommandOnlyInput) bool { return in.IntervalElapsed },
		Action:  ActionNudge,
	},
}

// EvaluateCommandOnly picks the next step of the command-only fallback
func EvaluateCommandOnly(in CommandOnlyInput) Decision {
	return evaluate(CommandOnlyRules, in)
}
