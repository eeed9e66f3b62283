package gathering

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
)

// Dependencies are the collaborators the orchestrator drives and observes
type Dependencies struct {
	Engine    domain.Engine
	Inventory domain.Inventory
	Monitor   domain.DependencyMonitor
	Operator  domain.Operator
	Catalog   domain.ItemCatalog
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the session logger
func WithLogger(logger common.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithClock overrides the time source (tests)
func WithClock(clock shared.Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSessionIDGenerator overrides how session IDs are minted
func WithSessionIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newSessionID = gen
		}
	}
}

// Orchestrator keeps a queue of gathering tasks moving by nudging an external
// engine it cannot command directly. It is driven exclusively by Update, which the
// host calls on every frame; nothing inside blocks and no locks are taken.
//
// States:
//
//	IDLE -> READY -> RUNNING -> COMPLETED
//	            ^        |
//	            +- Stop -+        any -> ERROR on an internal fault
type Orchestrator struct {
	deps      Dependencies
	settings  domain.Settings
	logger    common.Logger
	metrics   MetricsRecorder
	clock     shared.Clock
	optimizer *domain.ScheduleOptimizer

	newSessionID func() string

	state         domain.OrchestratorState
	queue         []*domain.Task
	currentIndex  int
	statusMessage string

	session    *session
	nextTickAt time.Time

	lastSessionID  string
	lastStartedAt  time.Time
	lastFinishedAt time.Time
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(deps Dependencies, settings domain.Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:         deps,
		settings:     settings.WithDefaults(),
		logger:       common.NoOpLogger(),
		metrics:      noOpMetrics{},
		clock:        shared.NewRealClock(),
		newSessionID: func() string { return uuid.New().String() },
		state:        domain.StateIdle,
		currentIndex: -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.optimizer = domain.NewScheduleOptimizer(deps.Catalog)
	return o
}

// BuildQueue replaces the queue from a resolved material list and moves to READY.
// An empty result is still READY; Start then reports "no work".
func (o *Orchestrator) BuildQueue(materials []domain.Material, buffer int) error {
	if o.state == domain.StateRunning {
		return &domain.ErrInvalidStateTransition{Operation: "build a queue", State: o.state}
	}

	o.queue = domain.BuildQueue(materials, buffer)
	o.currentIndex = -1
	o.state = domain.StateReady
	o.statusMessage = fmt.Sprintf("Ready: %d tasks queued", len(o.queue))
	o.logger.Log("INFO", "Gathering queue built", map[string]interface{}{
		"materials": len(materials),
		"tasks":     len(o.queue),
		"buffer":    buffer,
	})
	return nil
}

// OptimizeQueue reorders the READY queue by zone and, optionally, timed nodes first
func (o *Orchestrator) OptimizeQueue(prioritizeTimed bool) error {
	if o.state != domain.StateReady {
		return &domain.ErrInvalidStateTransition{Operation: "optimize the queue", State: o.state}
	}
	o.queue = o.optimizer.Optimize(o.queue, prioritizeTimed, o.clock.Now())
	o.logger.Log("INFO", "Gathering queue optimized", map[string]interface{}{
		"tasks":            len(o.queue),
		"prioritize_timed": prioritizeTimed,
	})
	return nil
}

// Start moves READY -> RUNNING: filters out unreachable tasks, captures baselines,
// subscribes to engine and inventory events and starts the first pending task.
func (o *Orchestrator) Start() error {
	if o.state != domain.StateReady {
		return &domain.ErrInvalidStateTransition{Operation: "start", State: o.state}
	}

	o.deps.Monitor.Poll()
	if deps := o.deps.Monitor.Snapshot(); !deps.EngineAvailable {
		err := domain.NewEngineUnavailableError(deps.BlockReason)
		o.statusMessage = err.Error()
		o.logger.Log("ERROR", "Gathering start refused", map[string]interface{}{
			"reason": deps.BlockReason,
		})
		return err
	}

	now := o.clock.Now()
	s := newSession(o.newSessionID(), now)
	o.session = s
	o.state = domain.StateRunning
	o.nextTickAt = time.Time{}
	o.lastSessionID = s.id
	o.lastStartedAt = now
	o.lastFinishedAt = time.Time{}

	// A list left behind by an earlier session makes the engine disable itself at once
	o.deps.Engine.RemoveTargetList()

	skipped := o.preflight()

	for _, t := range o.queue {
		if t.IsTerminal() {
			continue
		}
		if _, seen := s.baselines[t.ItemID()]; !seen {
			s.baselines[t.ItemID()] = o.deps.Inventory.GetCount(t.ItemID(), o.settings.IncludeAuxiliaryStorage)
		}
	}

	s.unsubscribeEngine = o.deps.Engine.OnDisabledChanged(func(ev domain.DisableEvent) {
		if !ev.Disabled {
			return
		}
		s.disable.Store(&domain.DisableSnapshot{DisableEvent: ev, ObservedAt: o.clock.Now()})
	})
	s.unsubscribeInventory = o.deps.Inventory.OnChanged(func() {
		s.inventoryDirty.Store(true)
	})

	o.logger.Log("INFO", "Gathering session started", map[string]interface{}{
		"session_id": s.id,
		"tasks":      len(o.queue),
		"skipped":    skipped,
	})

	first := o.nextPendingIndex(0)
	if first < 0 {
		o.finish("Completed: no work to do")
		return nil
	}
	o.startTask(first, now)
	return nil
}

// Stop tears the session down from any state and leaves the orchestrator IDLE
func (o *Orchestrator) Stop() {
	o.stopWithMessage("Stopped")
}

func (o *Orchestrator) stopWithMessage(message string) {
	wasRunning := o.session != nil
	if wasRunning {
		o.teardown()
		o.lastFinishedAt = o.clock.Now()
		o.metrics.RecordSessionFinished(domain.StateIdle, o.lastFinishedAt.Sub(o.lastStartedAt))
		o.logger.Log("INFO", "Gathering session stopped", map[string]interface{}{
			"session_id": o.lastSessionID,
			"reason":     message,
		})
	}
	o.state = domain.StateIdle
	o.statusMessage = message
	o.nextTickAt = time.Time{}
	o.currentIndex = -1
}

// teardown releases the injected list, disables the engine and unsubscribes.
// Safe to call more than once.
func (o *Orchestrator) teardown() {
	s := o.session
	if s == nil {
		return
	}
	o.session = nil

	s.unsubscribe()
	if s.listInjected {
		o.deps.Engine.RemoveTargetList()
		s.clearInjected()
	}
	o.deps.Engine.SetEnabled(false)
}

// finish ends a session that ran out of tasks
func (o *Orchestrator) finish(message string) {
	o.teardown()
	o.state = domain.StateCompleted
	o.currentIndex = -1
	o.lastFinishedAt = o.clock.Now()
	o.statusMessage = message
	o.metrics.RecordSessionFinished(domain.StateCompleted, o.lastFinishedAt.Sub(o.lastStartedAt))
	o.logger.Log("INFO", "Gathering session completed", map[string]interface{}{
		"session_id":     o.lastSessionID,
		"total_gathered": o.TotalItemsGathered(),
		"has_failures":   o.HasFailures(),
		"has_skipped":    o.HasSkippedTasks(),
	})
}

// fault moves to ERROR after an unrecoverable internal problem
func (o *Orchestrator) fault(cause interface{}) {
	o.logger.Log("ERROR", "Gathering orchestrator fault", map[string]interface{}{
		"session_id": o.lastSessionID,
		"cause":      fmt.Sprint(cause),
	})
	func() {
		defer func() { _ = recover() }()
		o.teardown()
	}()
	o.session = nil
	o.state = domain.StateError
	o.currentIndex = -1
	o.lastFinishedAt = o.clock.Now()
	o.statusMessage = fmt.Sprintf("Error: %v", cause)
	o.metrics.RecordSessionFinished(domain.StateError, o.lastFinishedAt.Sub(o.lastStartedAt))
}

// preflight skips tasks whose node tier is above what the operator can reach
func (o *Orchestrator) preflight() int {
	if o.deps.Catalog == nil || o.deps.Operator == nil {
		return 0
	}

	skipped := 0
	for _, t := range o.queue {
		if t.Status() != domain.TaskStatusPending {
			continue
		}
		info, ok := o.deps.Catalog.Lookup(t.ItemID())
		if !ok {
			continue
		}
		level := o.deps.Operator.Level(info.Class)
		if o.settings.Tiers.CanGather(level, info.NodeTier) {
			continue
		}
		msg := fmt.Sprintf("requires a tier %d node; %s level %d reaches tier %d",
			info.NodeTier, info.Class, level, o.settings.Tiers.MaxTier(level))
		if err := t.Skip(msg); err == nil {
			skipped++
			o.metrics.RecordTaskFinished(t.ItemName(), domain.TaskStatusSkipped, 0)
			o.logger.Log("WARNING", "Task skipped before start", map[string]interface{}{
				"item":   t.ItemName(),
				"reason": msg,
			})
		}
	}
	return skipped
}

func (o *Orchestrator) nextPendingIndex(from int) int {
	for i := from; i < len(o.queue); i++ {
		if !o.queue[i].IsTerminal() {
			return i
		}
	}
	return -1
}

// Read-only accessors

func (o *Orchestrator) State() domain.OrchestratorState { return o.state }
func (o *Orchestrator) StatusMessage() string           { return o.statusMessage }
func (o *Orchestrator) CurrentIndex() int               { return o.currentIndex }
func (o *Orchestrator) SessionID() string               { return o.lastSessionID }
func (o *Orchestrator) Settings() domain.Settings       { return o.settings }

// IsComplete reports whether the last session ran through its whole queue
func (o *Orchestrator) IsComplete() bool {
	return o.state == domain.StateCompleted
}

// CurrentTask returns the task the session is on, or nil outside a session
func (o *Orchestrator) CurrentTask() *domain.Task {
	if o.state != domain.StateRunning || o.currentIndex < 0 || o.currentIndex >= len(o.queue) {
		return nil
	}
	return o.queue[o.currentIndex]
}

// Tasks returns the queue in execution order
func (o *Orchestrator) Tasks() []*domain.Task {
	out := make([]*domain.Task, len(o.queue))
	copy(out, o.queue)
	return out
}

// Mode returns the current driving mode (list-driven outside a session)
func (o *Orchestrator) Mode() domain.Mode {
	if o.session == nil {
		return domain.ModeListDriven
	}
	return o.session.mode
}

func (o *Orchestrator) HasFailures() bool {
	return o.anyStatus(domain.TaskStatusFailed)
}

func (o *Orchestrator) HasSkippedTasks() bool {
	return o.anyStatus(domain.TaskStatusSkipped)
}

func (o *Orchestrator) anyStatus(status domain.TaskStatus) bool {
	for _, t := range o.queue {
		if t.Status() == status {
			return true
		}
	}
	return false
}

// TotalItemsGathered sums observed progress over the queue
func (o *Orchestrator) TotalItemsGathered() int {
	total := 0
	for _, t := range o.queue {
		total += t.QuantityObserved()
	}
	return total
}

// NotifyInventoryChanged is the push hint for hosts that deliver inventory events
// outside the Inventory collaborator. It forces one full recount on the next tick.
func (o *Orchestrator) NotifyInventoryChanged() {
	if s := o.session; s != nil {
		s.inventoryDirty.Store(true)
	}
}

// Snapshot copies the observable state
func (o *Orchestrator) Snapshot() StatusSnapshot {
	tasks := make([]TaskView, len(o.queue))
	for i, t := range o.queue {
		tasks[i] = viewOf(t)
	}
	return StatusSnapshot{
		SessionID:     o.lastSessionID,
		State:         o.state,
		Mode:          o.Mode(),
		StatusMessage: o.statusMessage,
		CurrentIndex:  o.currentIndex,
		Tasks:         tasks,
		TotalGathered: o.TotalItemsGathered(),
		HasFailures:   o.HasFailures(),
		HasSkipped:    o.HasSkippedTasks(),
		StartedAt:     o.lastStartedAt,
		FinishedAt:    o.lastFinishedAt,
		TakenAt:       o.clock.Now(),
	}
}
