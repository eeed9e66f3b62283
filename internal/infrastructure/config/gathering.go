package config

import (
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// GatheringConfig holds orchestrator timings and limits
type GatheringConfig struct {
	// Extra units queued on top of each material's remaining count
	Buffer int `mapstructure:"buffer" validate:"min=0"`

	TickInterval         time.Duration `mapstructure:"tick_interval" validate:"required"`
	RetryLimit           int           `mapstructure:"retry_limit" validate:"min=0"`
	FinishTimeout        time.Duration `mapstructure:"finish_timeout" validate:"required"`
	SoftNoDeltaTimeout   time.Duration `mapstructure:"soft_no_delta_timeout" validate:"required"`
	HardNoDeltaTimeout   time.Duration `mapstructure:"hard_no_delta_timeout" validate:"required,gtfield=SoftNoDeltaTimeout"`
	AbsoluteStallTimeout time.Duration `mapstructure:"absolute_stall_timeout" validate:"required"`
	InterTaskDelay       time.Duration `mapstructure:"inter_task_delay"`

	IncludeAuxiliaryStorage bool `mapstructure:"include_auxiliary_storage"`

	// Reorder the queue by zone before starting; timed nodes first when PrioritizeTimed
	Optimize        bool `mapstructure:"optimize"`
	PrioritizeTimed bool `mapstructure:"prioritize_timed"`

	Escalation  EscalationConfig  `mapstructure:"escalation"`
	CommandOnly CommandOnlyConfig `mapstructure:"command_only"`

	// Level -> highest reachable node tier, ascending by level
	Tiers []TierConfig `mapstructure:"tiers" validate:"dive"`
}

// EscalationConfig holds the ladder thresholds
type EscalationConfig struct {
	ReenableCooldown             time.Duration `mapstructure:"reenable_cooldown" validate:"required"`
	MaxReenableFailures          int           `mapstructure:"max_reenable_failures" validate:"min=1"`
	ResetCyclesBeforeCommandOnly int           `mapstructure:"reset_cycles_before_command_only" validate:"min=1"`
}

// CommandOnlyConfig holds the command-only fallback thresholds
type CommandOnlyConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"required"`
	MaxRefusals int           `mapstructure:"max_refusals" validate:"min=1"`
	ResetCycles int           `mapstructure:"reset_cycles" validate:"min=1"`
}

// TierConfig is one step of the proficiency step function
type TierConfig struct {
	MinLevel int `mapstructure:"min_level" validate:"min=1"`
	MaxTier  int `mapstructure:"max_tier" validate:"min=1"`
}

// ToSettings converts the config section into orchestrator settings
func (g GatheringConfig) ToSettings() domain.Settings {
	s := domain.Settings{
		TickInterval:                 g.TickInterval,
		RetryLimit:                   g.RetryLimit,
		FinishTimeout:                g.FinishTimeout,
		SoftNoDeltaTimeout:           g.SoftNoDeltaTimeout,
		HardNoDeltaTimeout:           g.HardNoDeltaTimeout,
		AbsoluteStallTimeout:         g.AbsoluteStallTimeout,
		ReenableCooldown:             g.Escalation.ReenableCooldown,
		MaxReenableFailures:          g.Escalation.MaxReenableFailures,
		ResetCyclesBeforeCommandOnly: g.Escalation.ResetCyclesBeforeCommandOnly,
		CommandOnlyResetCycles:       g.CommandOnly.ResetCycles,
		CommandOnlyInterval:          g.CommandOnly.Interval,
		MaxCommandRefusals:           g.CommandOnly.MaxRefusals,
		InterTaskDelay:               g.InterTaskDelay,
		IncludeAuxiliaryStorage:      g.IncludeAuxiliaryStorage,
	}
	if len(g.Tiers) > 0 {
		steps := make([]domain.TierStep, len(g.Tiers))
		for i, t := range g.Tiers {
			steps[i] = domain.TierStep{MinLevel: t.MinLevel, MaxTier: t.MaxTier}
		}
		s.Tiers = domain.ProficiencyTiers(steps)
	}
	return s.WithDefaults()
}
