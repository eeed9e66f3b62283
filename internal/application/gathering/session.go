package gathering

import (
	"sync/atomic"
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// commandOnlyState tracks the degraded mode for the current task
type commandOnlyState struct {
	enteredByLadder bool
	refusals        int
	resetCycles     int
	lastNudgeAt     time.Time
	awaitingAck     bool
}

// session is the per-queue state. It exists only while the orchestrator is RUNNING.
// Every field except the two atomics is touched exclusively from the tick; the
// atomics are written by collaborator callbacks that may fire on other goroutines.
type session struct {
	id        string
	startedAt time.Time

	// baselines holds the authoritative count of each item captured at Start
	baselines map[uint32]int

	lastKnownCount int
	taskStartedAt  time.Time
	lastProgressAt time.Time
	lastDeltaAt    time.Time
	softRescanDone bool

	finishWaitStartedAt time.Time
	nextTaskAt          time.Time
	awaitingNextTask    bool

	fastPathReady bool

	mode         domain.Mode
	listInjected bool
	injected     map[uint32]bool
	listRejected bool

	reenableFailures int
	lastReenableAt   time.Time
	resetCycles      int
	commandOnly      commandOnlyState

	disable        atomic.Pointer[domain.DisableSnapshot]
	inventoryDirty atomic.Bool

	unsubscribeEngine    func()
	unsubscribeInventory func()
}

func newSession(id string, now time.Time) *session {
	return &session{
		id:        id,
		startedAt: now,
		baselines: make(map[uint32]int),
		injected:  make(map[uint32]bool),
		mode:      domain.ModeListDriven,
	}
}

// resetTimers restarts every stall clock at now
func (s *session) resetTimers(now time.Time) {
	s.lastProgressAt = now
	s.lastDeltaAt = now
	s.softRescanDone = false
}

// clearEscalation drops all pending escalation state. Called on genuine progress.
func (s *session) clearEscalation() {
	s.reenableFailures = 0
	s.resetCycles = 0
	s.commandOnly.refusals = 0
	s.commandOnly.resetCycles = 0
	s.softRescanDone = false
	s.disable.Store(nil)
}

// peekDisable returns the pending disable snapshot without consuming it
func (s *session) peekDisable() *domain.DisableSnapshot {
	return s.disable.Load()
}

// consumeDisable clears snap if it is still the pending one
func (s *session) consumeDisable(snap *domain.DisableSnapshot) {
	if snap != nil {
		s.disable.CompareAndSwap(snap, nil)
	}
}

func (s *session) markInjected(items []domain.TargetItem) {
	s.injected = make(map[uint32]bool, len(items))
	for _, item := range items {
		s.injected[item.ItemID] = true
	}
	s.listInjected = true
}

func (s *session) clearInjected() {
	s.injected = make(map[uint32]bool)
	s.listInjected = false
}

func (s *session) unsubscribe() {
	if s.unsubscribeEngine != nil {
		s.unsubscribeEngine()
		s.unsubscribeEngine = nil
	}
	if s.unsubscribeInventory != nil {
		s.unsubscribeInventory()
		s.unsubscribeInventory = nil
	}
}
