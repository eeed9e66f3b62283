package ports

import "context"

// HostState is one poll of the host plugin
type HostState struct {
	// AppliedCommandSeq is the sequence number of the last command the plugin executed
	AppliedCommandSeq uint64 `json:"applied_command_seq"`

	Engine    EngineState    `json:"engine"`
	Pathing   PathingState   `json:"pathing"`
	Operator  OperatorState  `json:"operator"`
	Inventory InventoryState `json:"inventory"`
}

// EngineState is the automation engine's coarse status
type EngineState struct {
	Available bool `json:"available"`
	Enabled   bool `json:"enabled"`
	Waiting   bool `json:"waiting"`

	// DisableSeq increments on every disable, so two disables between polls are not lost
	DisableSeq     uint64 `json:"disable_seq"`
	DisableReason  string `json:"disable_reason"`
	Status         string `json:"status"`
	FailedAttempts int    `json:"failed_attempts"`
	BlockReason    string `json:"block_reason"`
}

// PathingState is the engine's pathing subsystem
type PathingState struct {
	Available     bool    `json:"available"`
	Ready         bool    `json:"ready"`
	BuildProgress float64 `json:"build_progress"`
}

// OperatorState is the player character
type OperatorState struct {
	Levels             map[string]int `json:"levels"`
	Interacting        bool           `json:"interacting"`
	InOperatingContext bool           `json:"in_operating_context"`
}

// InventoryState holds item counts keyed by decimal item id
type InventoryState struct {
	Revision  uint64         `json:"revision"`
	Counts    map[string]int `json:"counts"`
	Auxiliary map[string]int `json:"auxiliary"`
}

// EngineCapabilities is what the engine's target list accepts
type EngineCapabilities struct {
	IndexableItems []uint32 `json:"indexable_items"`
	MaxTargets     int      `json:"max_targets"`
}

// HostCommand is a fire-and-forget instruction for the host plugin
type HostCommand struct {
	Seq      uint64       `json:"seq"`
	Type     string       `json:"type"`
	Enabled  *bool        `json:"enabled,omitempty"`
	Targets  []TargetSpec `json:"targets,omitempty"`
	HintKind string       `json:"hint_kind,omitempty"`
	ItemName string       `json:"item_name,omitempty"`
}

// TargetSpec is one target list entry on the wire
type TargetSpec struct {
	ItemID   uint32 `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Host command types
const (
	CommandSetEnabled       = "set_enabled"
	CommandSetTargetList    = "set_target_list"
	CommandRemoveTargetList = "remove_target_list"
	CommandForceReset       = "force_reset"
	CommandHint             = "hint"
)

// HostClient talks to the host plugin. Every call may block on I/O and must only
// be made from background goroutines, never from the orchestrator tick.
type HostClient interface {
	FetchState(ctx context.Context) (*HostState, error)
	FetchCapabilities(ctx context.Context) (*EngineCapabilities, error)
	SendCommand(ctx context.Context, cmd HostCommand) error
}
