package simulated

import (
	"context"
	"math/rand"
	"sync"
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
)

// Options tune the simulated host
type Options struct {
	// GatherInterval is how long one unit takes while the engine works
	GatherInterval time.Duration

	// FailureRate is the chance per gathered unit that the engine disables itself
	// with FAILED_AT_TARGET
	FailureRate float64

	// PathingWarmup delays pathing readiness after construction
	PathingWarmup time.Duration

	// NonIndexable items cannot go into a target list
	NonIndexable []uint32

	Levels        map[domain.GatherClass]int
	StartingCount map[uint32]int
	Seed          int64
}

// DefaultOptions gathers one unit every two seconds and never fails
func DefaultOptions() Options {
	return Options{
		GatherInterval: 2 * time.Second,
		Levels: map[domain.GatherClass]int{
			domain.GatherClassMiner:    100,
			domain.GatherClassBotanist: 100,
			domain.GatherClassFisher:   100,
		},
		Seed: 1,
	}
}

// World is an in-process stand-in for the host: one automation engine, the
// operator's inventory, pathing and the operator itself. It implements
// domain.Engine, domain.Inventory, domain.DependencyMonitor and domain.Operator.
//
// Time only moves when Advance is called (Run calls it on a ticker). Callbacks fire
// after the world lock is released.
type World struct {
	mu    sync.Mutex
	clock shared.Clock
	opts  Options
	rng   *rand.Rand

	createdAt    time.Time
	lastAdvance  time.Time
	progress     time.Duration
	nonIndexable map[uint32]bool

	enabled        bool
	targets        []domain.TargetItem
	hintItem       string
	hintKind       domain.HintKind
	failedAttempts int
	resets         int

	counts      map[uint32]int
	names       map[string]uint32
	cachedItem  uint32
	cachedReady bool
	lastGather  time.Time
	away        bool

	nextHandlerID   int
	disableHandlers map[int]func(domain.DisableEvent)
	changeHandlers  map[int]func()
}

// NewWorld creates a world. The catalog maps hint commands by item name to ids.
func NewWorld(catalog []domain.ItemInfo, opts Options, clock shared.Clock) *World {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if opts.GatherInterval <= 0 {
		opts.GatherInterval = DefaultOptions().GatherInterval
	}

	now := clock.Now()
	w := &World{
		clock:           clock,
		opts:            opts,
		rng:             rand.New(rand.NewSource(opts.Seed)),
		createdAt:       now,
		lastAdvance:     now,
		nonIndexable:    make(map[uint32]bool),
		counts:          make(map[uint32]int),
		names:           make(map[string]uint32),
		disableHandlers: make(map[int]func(domain.DisableEvent)),
		changeHandlers:  make(map[int]func()),
	}
	for _, id := range opts.NonIndexable {
		w.nonIndexable[id] = true
	}
	for id, count := range opts.StartingCount {
		w.counts[id] = count
	}
	for _, item := range catalog {
		w.names[item.Name] = item.ItemID
	}
	return w
}

// Run advances the world every interval until ctx ends
func (w *World) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Advance()
		}
	}
}

// Advance simulates the time elapsed since the previous call
func (w *World) Advance() {
	w.mu.Lock()
	now := w.clock.Now()
	elapsed := now.Sub(w.lastAdvance)
	w.lastAdvance = now

	var events []domain.DisableEvent
	changed := false

	if w.enabled {
		w.progress += elapsed
		for w.enabled && w.progress >= w.opts.GatherInterval {
			w.progress -= w.opts.GatherInterval
			ev, gathered := w.gatherOne()
			changed = changed || gathered
			if ev != nil {
				events = append(events, *ev)
			}
		}
	} else {
		w.progress = 0
	}
	w.mu.Unlock()

	for _, ev := range events {
		w.fireDisable(ev)
	}
	if changed {
		w.fireChanged()
	}
}

// gatherOne works the active target for one unit. Called with the lock held.
func (w *World) gatherOne() (*domain.DisableEvent, bool) {
	item, ok := w.activeItem()
	if !ok {
		w.enabled = false
		return &domain.DisableEvent{Disabled: true, Reason: domain.DisableReasonNothingToDo, Status: "Nothing left to gather"}, false
	}

	if w.opts.FailureRate > 0 && w.rng.Float64() < w.opts.FailureRate {
		w.enabled = false
		w.failedAttempts++
		return &domain.DisableEvent{
			Disabled:       true,
			Reason:         domain.DisableReasonFailedAtTarget,
			Status:         "Could not reach the node",
			FailedAttempts: w.failedAttempts,
		}, false
	}

	w.failedAttempts = 0
	w.counts[item]++
	w.lastGather = w.lastAdvance

	// The engine switches itself off once the injected list is satisfied
	if len(w.targets) > 0 {
		if _, more := w.activeItem(); !more {
			w.enabled = false
			return &domain.DisableEvent{Disabled: true, Reason: domain.DisableReasonNothingToDo, Status: "Target list complete"}, true
		}
	}
	return nil, true
}

// activeItem is the first unsatisfied list entry, or the hinted item without a list
func (w *World) activeItem() (uint32, bool) {
	for _, t := range w.targets {
		if w.counts[t.ItemID] < t.Quantity {
			return t.ItemID, true
		}
	}
	if len(w.targets) == 0 && w.hintItem != "" {
		id, ok := w.names[w.hintItem]
		return id, ok
	}
	return 0, false
}

// Engine

func (w *World) SetEnabled(enabled bool) {
	w.mu.Lock()
	was := w.enabled
	w.enabled = enabled
	w.mu.Unlock()

	if was && !enabled {
		w.fireDisable(domain.DisableEvent{Disabled: true, Reason: domain.DisableReasonUnknown, Status: "Disabled by command"})
	} else if !was && enabled {
		w.fireDisable(domain.DisableEvent{Disabled: false})
	}
}

func (w *World) IsEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// IsWaiting reports an enabled engine with nothing it can work on
func (w *World) IsWaiting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.enabled {
		return false
	}
	_, ok := w.activeItem()
	return !ok
}

func (w *World) SetTargetList(items []domain.TargetItem) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, item := range items {
		if w.nonIndexable[item.ItemID] {
			return false
		}
	}
	w.targets = append([]domain.TargetItem(nil), items...)
	return true
}

func (w *World) RemoveTargetList() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.targets = nil
}

func (w *World) ForceReset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failedAttempts = 0
	w.progress = 0
	w.resets++
}

func (w *World) OnDisabledChanged(handler func(domain.DisableEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextHandlerID
	w.nextHandlerID++
	w.disableHandlers[id] = handler
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.disableHandlers, id)
	}
}

func (w *World) SendHintCommand(kind domain.HintKind, itemName string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hintKind = kind
	w.hintItem = itemName
}

// Inventory

func (w *World) GetCount(itemID uint32, includeAuxiliaryStorage bool) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[itemID]
}

func (w *World) InitializeFastPath(itemID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cachedItem = itemID
	w.cachedReady = true
	return true
}

func (w *World) CachedCount() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.cachedReady {
		return 0, false
	}
	return w.counts[w.cachedItem], true
}

func (w *World) OnChanged(handler func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextHandlerID
	w.nextHandlerID++
	w.changeHandlers[id] = handler
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.changeHandlers, id)
	}
}

// DependencyMonitor

func (w *World) Poll() {}

func (w *World) Snapshot() domain.DependencySnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := domain.DependencySnapshot{EngineAvailable: true, PathingAvailable: true, PathingReady: true, BuildProgress: 100}
	if w.opts.PathingWarmup > 0 {
		if elapsed := w.clock.Now().Sub(w.createdAt); elapsed < w.opts.PathingWarmup {
			snap.PathingReady = false
			snap.BuildProgress = 100 * float64(elapsed) / float64(w.opts.PathingWarmup)
		}
	}
	return snap
}

// Operator

func (w *World) Level(class domain.GatherClass) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts.Levels[class]
}

// IsInteracting is true for the first half of the interval after each gathered unit
func (w *World) IsInteracting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled && !w.lastGather.IsZero() && w.clock.Now().Sub(w.lastGather) < w.opts.GatherInterval/2
}

func (w *World) InOperatingContext() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.away
}

// Scripting hooks for demos and tests

// SetCount overwrites an inventory count and fires a change
func (w *World) SetCount(itemID uint32, count int) {
	w.mu.Lock()
	w.counts[itemID] = count
	w.mu.Unlock()
	w.fireChanged()
}

// Disable switches the engine off as if it decided to stop on its own
func (w *World) Disable(reason domain.DisableReason, status string) {
	w.mu.Lock()
	w.enabled = false
	w.mu.Unlock()
	w.fireDisable(domain.DisableEvent{Disabled: true, Reason: reason, Status: status})
}

// LeaveOperatingContext moves the operator somewhere gathering is impossible
func (w *World) LeaveOperatingContext() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.away = true
}

// Targets returns a copy of the injected list
func (w *World) Targets() []domain.TargetItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.TargetItem(nil), w.targets...)
}

// Hint returns the last hint command received
func (w *World) Hint() (domain.HintKind, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hintKind, w.hintItem
}

// Resets counts ForceReset calls
func (w *World) Resets() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resets
}

func (w *World) fireDisable(ev domain.DisableEvent) {
	w.mu.Lock()
	handlers := make([]func(domain.DisableEvent), 0, len(w.disableHandlers))
	for _, fn := range w.disableHandlers {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

func (w *World) fireChanged() {
	w.mu.Lock()
	handlers := make([]func(), 0, len(w.changeHandlers))
	for _, fn := range w.changeHandlers {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
