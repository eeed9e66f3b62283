package helpers

import (
	"fmt"
	"sync"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// MockHost is a scriptable stand-in for the engine, inventory, dependency monitor
// and operator all at once. Tests change its state between orchestrator ticks and
// inspect the calls it received.
type MockHost struct {
	mu sync.Mutex

	enabled bool
	waiting bool

	// RefuseEnable makes SetEnabled(true) a no-op, like an engine ignoring commands
	RefuseEnable bool

	// RejectTargetLists makes every SetTargetList call fail
	RejectTargetLists bool

	// MaxTargets rejects lists longer than this when positive
	MaxTargets int

	// PanicOnCount makes every count read panic, simulating a host fault
	PanicOnCount bool

	counts       map[uint32]int
	fastPathItem uint32
	fastPathSet  bool
	staleCache   bool
	cachedValue  *int

	targets         []domain.TargetItem
	TargetListCalls [][]domain.TargetItem
	RemoveListCalls int
	ResetCalls      int
	EnableCalls     int
	DisableCalls    int
	Hints           []string

	deps        domain.DependencySnapshot
	PollCalls   int
	levels      map[domain.GatherClass]int
	interacting bool
	inContext   bool

	nextHandlerID   int
	disableHandlers map[int]func(domain.DisableEvent)
	changeHandlers  map[int]func()
}

// NewMockHost creates a ready host: engine available, pathing built, operator in
// context at level 100 for every class
func NewMockHost() *MockHost {
	return &MockHost{
		counts: make(map[uint32]int),
		deps: domain.DependencySnapshot{
			EngineAvailable:  true,
			PathingAvailable: true,
			PathingReady:     true,
			BuildProgress:    100,
		},
		levels: map[domain.GatherClass]int{
			domain.GatherClassMiner:    100,
			domain.GatherClassBotanist: 100,
			domain.GatherClassFisher:   100,
		},
		inContext:       true,
		disableHandlers: make(map[int]func(domain.DisableEvent)),
		changeHandlers:  make(map[int]func()),
	}
}

// Engine

func (h *MockHost) SetEnabled(enabled bool) {
	h.mu.Lock()
	if enabled {
		h.EnableCalls++
		if h.RefuseEnable {
			h.mu.Unlock()
			return
		}
	} else {
		h.DisableCalls++
	}
	h.enabled = enabled
	h.mu.Unlock()
}

func (h *MockHost) IsEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

func (h *MockHost) IsWaiting() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled && h.waiting
}

func (h *MockHost) SetTargetList(items []domain.TargetItem) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append([]domain.TargetItem(nil), items...)
	h.TargetListCalls = append(h.TargetListCalls, list)
	if h.RejectTargetLists || (h.MaxTargets > 0 && len(items) > h.MaxTargets) {
		return false
	}
	h.targets = list
	return true
}

func (h *MockHost) RemoveTargetList() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.RemoveListCalls++
	h.targets = nil
}

func (h *MockHost) ForceReset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ResetCalls++
}

func (h *MockHost) OnDisabledChanged(handler func(domain.DisableEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextHandlerID
	h.nextHandlerID++
	h.disableHandlers[id] = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.disableHandlers, id)
	}
}

func (h *MockHost) SendHintCommand(kind domain.HintKind, itemName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Hints = append(h.Hints, fmt.Sprintf("%s:%s", kind, itemName))
}

// Inventory

func (h *MockHost) GetCount(itemID uint32, includeAuxiliaryStorage bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PanicOnCount {
		panic("inventory read failed")
	}
	return h.counts[itemID]
}

func (h *MockHost) InitializeFastPath(itemID uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fastPathItem = itemID
	h.fastPathSet = true
	h.staleCache = false
	return true
}

func (h *MockHost) CachedCount() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PanicOnCount {
		panic("inventory read failed")
	}
	if !h.fastPathSet || h.staleCache {
		return 0, false
	}
	if h.cachedValue != nil {
		return *h.cachedValue, true
	}
	return h.counts[h.fastPathItem], true
}

func (h *MockHost) OnChanged(handler func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextHandlerID
	h.nextHandlerID++
	h.changeHandlers[id] = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.changeHandlers, id)
	}
}

// Dependency monitor

func (h *MockHost) Poll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.PollCalls++
}

func (h *MockHost) Snapshot() domain.DependencySnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deps
}

// Operator

func (h *MockHost) Level(class domain.GatherClass) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.levels[class]
}

func (h *MockHost) IsInteracting() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interacting
}

func (h *MockHost) InOperatingContext() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inContext
}

// Scripting

// SetCount sets the authoritative count of an item
func (h *MockHost) SetCount(itemID uint32, count int) {
	h.mu.Lock()
	h.counts[itemID] = count
	h.mu.Unlock()
}

// Gather adds units of an item and fires the inventory-change hint
func (h *MockHost) Gather(itemID uint32, units int) {
	h.mu.Lock()
	h.counts[itemID] += units
	handlers := make([]func(), 0, len(h.changeHandlers))
	for _, fn := range h.changeHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// Count returns the current count of an item
func (h *MockHost) Count(itemID uint32) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[itemID]
}

// SetCachedCount pins the fast-path answer regardless of the real count
func (h *MockHost) SetCachedCount(count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cachedValue = &count
}

// MarkCacheStale makes the next CachedCount report a stale slot
func (h *MockHost) MarkCacheStale() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staleCache = true
}

// SetWaiting marks the engine as enabled but idle
func (h *MockHost) SetWaiting(waiting bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.waiting = waiting
}

// Disable turns the engine off and reports why to every subscriber
func (h *MockHost) Disable(reason domain.DisableReason, failedAttempts int) {
	h.mu.Lock()
	h.enabled = false
	handlers := make([]func(domain.DisableEvent), 0, len(h.disableHandlers))
	for _, fn := range h.disableHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	ev := domain.DisableEvent{
		Disabled:       true,
		Reason:         reason,
		Status:         string(reason),
		FailedAttempts: failedAttempts,
	}
	for _, fn := range handlers {
		fn(ev)
	}
}

// SetDependencies replaces the readiness snapshot
func (h *MockHost) SetDependencies(deps domain.DependencySnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps = deps
}

// SetLevel sets the operator's proficiency for a class
func (h *MockHost) SetLevel(class domain.GatherClass, level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levels[class] = level
}

// SetInteracting marks the operator as mid-interaction with a node
func (h *MockHost) SetInteracting(interacting bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.interacting = interacting
}

// LeaveOperatingContext moves the operator somewhere gathering is impossible
func (h *MockHost) LeaveOperatingContext() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inContext = false
}

// Targets returns the currently injected list
func (h *MockHost) Targets() []domain.TargetItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.TargetItem(nil), h.targets...)
}

// TargetListCallCount returns how many times a list was offered to the engine
func (h *MockHost) TargetListCallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.TargetListCalls)
}

// Subscribers returns how many callbacks are still registered
func (h *MockHost) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.disableHandlers) + len(h.changeHandlers)
}

var (
	_ domain.Engine            = (*MockHost)(nil)
	_ domain.Inventory         = (*MockHost)(nil)
	_ domain.DependencyMonitor = (*MockHost)(nil)
	_ domain.Operator          = (*MockHost)(nil)
)
