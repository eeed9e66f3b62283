package gathering

import "time"

// Default tuning values for the orchestrator
const (
	DefaultTickInterval           = 1 * time.Second
	DefaultRetryLimit             = 3
	DefaultFinishTimeout          = 30 * time.Second
	DefaultSoftNoDeltaTimeout     = 20 * time.Second
	DefaultHardNoDeltaTimeout     = 90 * time.Second
	DefaultAbsoluteStallTimeout   = 5 * time.Minute
	DefaultReenableCooldown       = 10 * time.Second
	DefaultMaxReenableFailures    = 3
	DefaultResetCyclesBeforeCmd   = 3
	DefaultCommandOnlyResetCycles = 3
	DefaultCommandOnlyInterval    = 30 * time.Second
	DefaultMaxCommandRefusals     = 3
	DefaultInterTaskDelay         = 2 * time.Second
)

// Settings holds every timeout and limit of the orchestrator
type Settings struct {
	TickInterval time.Duration

	// RetryLimit is how many stall restarts a task gets before it fails
	RetryLimit int

	// FinishTimeout bounds the wait for an in-progress node interaction after the goal is met
	FinishTimeout time.Duration

	// SoftNoDeltaTimeout triggers one authoritative rescan while the engine is idle
	SoftNoDeltaTimeout time.Duration

	// HardNoDeltaTimeout treats an idle engine with no inventory change as a stall
	HardNoDeltaTimeout time.Duration

	// AbsoluteStallTimeout is the ceiling without progress regardless of engine state
	AbsoluteStallTimeout time.Duration

	ReenableCooldown    time.Duration
	MaxReenableFailures int

	// ResetCyclesBeforeCommandOnly is how many list-driven reset cycles run before switching modes
	ResetCyclesBeforeCommandOnly int

	// CommandOnlyResetCycles is how many reset cycles command-only mode gets before giving up
	CommandOnlyResetCycles int

	CommandOnlyInterval time.Duration
	MaxCommandRefusals  int

	InterTaskDelay time.Duration

	IncludeAuxiliaryStorage bool

	Tiers ProficiencyTiers
}

// DefaultSettings returns the stock tuning
func DefaultSettings() Settings {
	return Settings{
		TickInterval:                 DefaultTickInterval,
		RetryLimit:                   DefaultRetryLimit,
		FinishTimeout:                DefaultFinishTimeout,
		SoftNoDeltaTimeout:           DefaultSoftNoDeltaTimeout,
		HardNoDeltaTimeout:           DefaultHardNoDeltaTimeout,
		AbsoluteStallTimeout:         DefaultAbsoluteStallTimeout,
		ReenableCooldown:             DefaultReenableCooldown,
		MaxReenableFailures:          DefaultMaxReenableFailures,
		ResetCyclesBeforeCommandOnly: DefaultResetCyclesBeforeCmd,
		CommandOnlyResetCycles:       DefaultCommandOnlyResetCycles,
		CommandOnlyInterval:          DefaultCommandOnlyInterval,
		MaxCommandRefusals:           DefaultMaxCommandRefusals,
		InterTaskDelay:               DefaultInterTaskDelay,
		Tiers:                        DefaultProficiencyTiers(),
	}
}

// WithDefaults fills every zero field from DefaultSettings.
// InterTaskDelay and RetryLimit accept zero, so they are only filled when negative.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.TickInterval <= 0 {
		s.TickInterval = d.TickInterval
	}
	if s.RetryLimit < 0 {
		s.RetryLimit = d.RetryLimit
	}
	if s.FinishTimeout <= 0 {
		s.FinishTimeout = d.FinishTimeout
	}
	if s.SoftNoDeltaTimeout <= 0 {
		s.SoftNoDeltaTimeout = d.SoftNoDeltaTimeout
	}
	if s.HardNoDeltaTimeout <= 0 {
		s.HardNoDeltaTimeout = d.HardNoDeltaTimeout
	}
	if s.AbsoluteStallTimeout <= 0 {
		s.AbsoluteStallTimeout = d.AbsoluteStallTimeout
	}
	if s.ReenableCooldown <= 0 {
		s.ReenableCooldown = d.ReenableCooldown
	}
	if s.MaxReenableFailures <= 0 {
		s.MaxReenableFailures = d.MaxReenableFailures
	}
	if s.ResetCyclesBeforeCommandOnly <= 0 {
		s.ResetCyclesBeforeCommandOnly = d.ResetCyclesBeforeCommandOnly
	}
	if s.CommandOnlyResetCycles <= 0 {
		s.CommandOnlyResetCycles = d.CommandOnlyResetCycles
	}
	if s.CommandOnlyInterval <= 0 {
		s.CommandOnlyInterval = d.CommandOnlyInterval
	}
	if s.MaxCommandRefusals <= 0 {
		s.MaxCommandRefusals = d.MaxCommandRefusals
	}
	if s.InterTaskDelay < 0 {
		s.InterTaskDelay = d.InterTaskDelay
	}
	if len(s.Tiers) == 0 {
		s.Tiers = d.Tiers
	}
	return s
}
