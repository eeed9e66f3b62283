package gathering

// TargetItem is one entry of the engine's injected target list.
// Quantity is an absolute inventory target: the engine treats
// "current count >= Quantity" as done.
type TargetItem struct {
	ItemID   uint32
	Quantity int
}

// HintKind selects which class-specific nudge command the engine receives
type HintKind string

const (
	HintKindMine    HintKind = "mine"
	HintKindHarvest HintKind = "harvest"
	HintKindFish    HintKind = "fish"
	HintKindGeneric HintKind = "gather"
)

// Engine is the external, semi-autonomous automation engine.
// Every call must be non-blocking; implementations that talk to a remote host queue
// commands and answer queries from a cached snapshot.
type Engine interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	IsWaiting() bool

	// SetTargetList replaces the injected target list. Returns false when the
	// engine rejects the list or cannot index one of its items.
	SetTargetList(items []TargetItem) bool
	RemoveTargetList()

	// ForceReset clears the engine's internal queues and counters
	ForceReset()

	// OnDisabledChanged registers a callback fired whenever the engine toggles.
	// The returned function unsubscribes.
	OnDisabledChanged(handler func(DisableEvent)) (unsubscribe func())

	SendHintCommand(kind HintKind, itemName string)
}

// Inventory answers item counts. CachedCount reads the slot prepared by
// InitializeFastPath and reports ok=false when that slot went stale.
type Inventory interface {
	GetCount(itemID uint32, includeAuxiliaryStorage bool) int
	InitializeFastPath(itemID uint32) bool
	CachedCount() (count int, ok bool)

	// OnChanged registers a hint fired when the host sees an inventory change
	OnChanged(handler func()) (unsubscribe func())
}

// DependencySnapshot is the last polled readiness of the engine and its pathing subsystem
type DependencySnapshot struct {
	EngineAvailable  bool
	PathingAvailable bool
	PathingReady     bool
	BuildProgress    float64
	BlockReason      string
}

// Ready reports whether every facility the engine needs is usable
func (s DependencySnapshot) Ready() bool {
	return s.EngineAvailable && s.PathingAvailable && s.PathingReady
}

// DependencyMonitor reports whether the engine and its pathing subsystem are usable
type DependencyMonitor interface {
	Poll()
	Snapshot() DependencySnapshot
}

// Operator exposes the state of the character doing the gathering
type Operator interface {
	// Level returns the operator's proficiency level for a gathering class
	Level(class GatherClass) int

	// IsInteracting reports whether the operator is mid-interaction with a source node
	IsInteracting() bool

	// InOperatingContext reports whether the operator is still somewhere gathering is possible
	InOperatingContext() bool
}

// ItemCatalog is the static item database
type ItemCatalog interface {
	Lookup(itemID uint32) (ItemInfo, bool)
}
