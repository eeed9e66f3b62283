package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/ports"
)

const commandTimeout = 2 * time.Second

type polledState struct {
	state *ports.HostState
	at    time.Time
}

type capabilities struct {
	indexable  map[uint32]bool
	maxTargets int
}

type pendingToggle struct {
	enabled bool
	seq     uint64
	at      time.Time
}

// Host keeps a background view of the host plugin. A poller goroutine refreshes an
// atomically swapped state snapshot and a sender goroutine drains a buffered
// command queue, so the adapters built on top never block the orchestrator tick.
type Host struct {
	client       ports.HostClient
	logger       common.Logger
	clock        shared.Clock
	pollInterval time.Duration
	staleAfter   time.Duration

	state    atomic.Pointer[polledState]
	caps     atomic.Pointer[capabilities]
	pending  atomic.Pointer[pendingToggle]
	commands chan ports.HostCommand
	pollNow  chan struct{}
	seq      atomic.Uint64
	dropped  atomic.Uint64

	mu              sync.Mutex
	nextHandlerID   int
	disableHandlers map[int]func(domain.DisableEvent)
	changeHandlers  map[int]func()
}

// NewHost creates a host view. Run must be called for it to do anything.
func NewHost(client ports.HostClient, cfg config.BridgeConfig, logger common.Logger, clock shared.Clock) *Host {
	if logger == nil {
		logger = common.NoOpLogger()
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	staleAfter := 3 * cfg.PollInterval
	if staleAfter < time.Second {
		staleAfter = time.Second
	}
	queueSize := cfg.CommandQueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Host{
		client:          client,
		logger:          logger,
		clock:           clock,
		pollInterval:    cfg.PollInterval,
		staleAfter:      staleAfter,
		commands:        make(chan ports.HostCommand, queueSize),
		pollNow:         make(chan struct{}, 1),
		disableHandlers: make(map[int]func(domain.DisableEvent)),
		changeHandlers:  make(map[int]func()),
	}
}

// Run probes the engine's capabilities, then polls and sends commands until ctx ends
func (h *Host) Run(ctx context.Context) error {
	if err := h.ProbeCapabilities(ctx); err != nil {
		h.logger.Log("WARNING", "Engine capability probe failed, target lists will not be pre-checked", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.sendLoop(ctx)
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		if err := h.Poll(ctx); err != nil && ctx.Err() == nil {
			h.logger.Log("DEBUG", "Host poll failed", map[string]interface{}{
				"error": err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-ticker.C:
		case <-h.pollNow:
		}
	}
}

// ProbeCapabilities loads which items the target list can hold
func (h *Host) ProbeCapabilities(ctx context.Context) error {
	caps, err := h.client.FetchCapabilities(ctx)
	if err != nil {
		return err
	}
	indexable := make(map[uint32]bool, len(caps.IndexableItems))
	for _, id := range caps.IndexableItems {
		indexable[id] = true
	}
	h.caps.Store(&capabilities{indexable: indexable, maxTargets: caps.MaxTargets})
	h.logger.Log("INFO", "Engine capabilities loaded", map[string]interface{}{
		"indexable_items": len(indexable),
		"max_targets":     caps.MaxTargets,
	})
	return nil
}

// Poll fetches one state and fires disable and inventory-change callbacks
func (h *Host) Poll(ctx context.Context) error {
	state, err := h.client.FetchState(ctx)
	if err != nil {
		return err
	}

	prev := h.state.Swap(&polledState{state: state, at: h.clock.Now()})
	if prev == nil {
		return nil
	}

	before, after := prev.state.Engine, state.Engine
	if after.DisableSeq > before.DisableSeq || (before.Enabled && !after.Enabled) {
		h.fireDisable(domain.DisableEvent{
			Disabled:       !after.Enabled,
			Reason:         domain.ParseDisableReason(after.DisableReason),
			Status:         after.Status,
			FailedAttempts: after.FailedAttempts,
		})
	} else if !before.Enabled && after.Enabled {
		h.fireDisable(domain.DisableEvent{Disabled: false, Status: after.Status})
	}

	if state.Inventory.Revision != prev.state.Inventory.Revision {
		h.fireChanged()
	}
	return nil
}

// RequestPoll asks the poller for an early refresh without waiting for it
func (h *Host) RequestPoll() {
	select {
	case h.pollNow <- struct{}{}:
	default:
	}
}

// enqueue assigns the next sequence number and queues cmd. A full queue drops
// the command; the orchestrator's next nudge supersedes it.
func (h *Host) enqueue(cmd ports.HostCommand) {
	cmd.Seq = h.seq.Add(1)
	h.push(cmd)
}

// enqueueToggle stores the pending toggle before the command can reach the
// sender, then queues it
func (h *Host) enqueueToggle(enabled bool) {
	cmd := ports.HostCommand{Type: ports.CommandSetEnabled, Enabled: &enabled, Seq: h.seq.Add(1)}
	h.pending.Store(&pendingToggle{enabled: enabled, seq: cmd.Seq, at: h.clock.Now()})
	if !h.push(cmd) {
		h.clearPending(cmd.Seq)
	}
}

func (h *Host) push(cmd ports.HostCommand) bool {
	select {
	case h.commands <- cmd:
		return true
	default:
		h.dropped.Add(1)
		h.logger.Log("WARNING", "Host command queue full, dropping command", map[string]interface{}{
			"type": cmd.Type,
			"seq":  cmd.Seq,
		})
		return false
	}
}

// pendingToggleFor returns the unapplied enable toggle IsEnabled should still trust.
// A toggle expires once the plugin applied it or a later command, or after staleAfter.
func (h *Host) pendingToggleFor(state *ports.HostState) *pendingToggle {
	p := h.pending.Load()
	if p == nil {
		return nil
	}
	if state != nil && state.AppliedCommandSeq >= p.seq {
		return nil
	}
	if h.clock.Now().Sub(p.at) >= h.staleAfter {
		return nil
	}
	return p
}

// clearPending forgets the toggle with seq, if it is still the pending one
func (h *Host) clearPending(seq uint64) {
	if p := h.pending.Load(); p != nil && p.seq == seq {
		h.pending.CompareAndSwap(p, nil)
	}
}

func (h *Host) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			sendCtx, cancel := context.WithTimeout(ctx, commandTimeout)
			err := h.client.SendCommand(sendCtx, cmd)
			cancel()
			if err != nil {
				h.clearPending(cmd.Seq)
				h.logger.Log("WARNING", fmt.Sprintf("Host command failed: %v", err), map[string]interface{}{
					"type": cmd.Type,
					"seq":  cmd.Seq,
				})
				h.RequestPoll()
				continue
			}
			h.RequestPoll()
		}
	}
}

// current returns the last polled state and whether it is fresh enough to trust
func (h *Host) current() (*ports.HostState, bool) {
	p := h.state.Load()
	if p == nil {
		return nil, false
	}
	return p.state, h.clock.Now().Sub(p.at) < h.staleAfter
}

// DroppedCommands counts commands lost to a full queue
func (h *Host) DroppedCommands() uint64 {
	return h.dropped.Load()
}

func (h *Host) subscribeDisable(fn func(domain.DisableEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextHandlerID
	h.nextHandlerID++
	h.disableHandlers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.disableHandlers, id)
	}
}

func (h *Host) subscribeChanged(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextHandlerID
	h.nextHandlerID++
	h.changeHandlers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.changeHandlers, id)
	}
}

func (h *Host) fireDisable(ev domain.DisableEvent) {
	h.mu.Lock()
	handlers := make([]func(domain.DisableEvent), 0, len(h.disableHandlers))
	for _, fn := range h.disableHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (h *Host) fireChanged() {
	h.mu.Lock()
	handlers := make([]func(), 0, len(h.changeHandlers))
	for _, fn := range h.changeHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
