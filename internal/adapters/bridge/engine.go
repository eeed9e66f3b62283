package bridge

import (
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/ports"
)

// Engine is the domain.Engine view of the host's automation engine.
// Commands are queued; queries read the last polled state.
type Engine struct {
	host *Host
}

// NewEngine creates an engine adapter over host
func NewEngine(host *Host) *Engine {
	return &Engine{host: host}
}

// SetEnabled queues a toggle. Until the plugin reports having applied it, IsEnabled
// answers with the requested value so the next tick does not misread a stale poll.
// A dropped toggle is never pending.
func (e *Engine) SetEnabled(enabled bool) {
	e.host.enqueueToggle(enabled)
}

// IsEnabled reports false when the last poll is too old to trust, which sends the
// orchestrator to the dependency monitor instead of acting on old state.
func (e *Engine) IsEnabled() bool {
	state, fresh := e.host.current()
	if p := e.host.pendingToggleFor(state); p != nil {
		return p.enabled
	}
	return fresh && state.Engine.Enabled
}

func (e *Engine) IsWaiting() bool {
	state, fresh := e.host.current()
	return fresh && state.Engine.Waiting
}

// SetTargetList is accepted when every item is indexable and the list fits.
// Without a capability probe the list is sent optimistically.
func (e *Engine) SetTargetList(items []domain.TargetItem) bool {
	if caps := e.host.caps.Load(); caps != nil {
		if caps.maxTargets > 0 && len(items) > caps.maxTargets {
			return false
		}
		for _, item := range items {
			if !caps.indexable[item.ItemID] {
				return false
			}
		}
	}

	targets := make([]ports.TargetSpec, len(items))
	for i, item := range items {
		targets[i] = ports.TargetSpec{ItemID: item.ItemID, Quantity: item.Quantity}
	}
	e.host.enqueue(ports.HostCommand{Type: ports.CommandSetTargetList, Targets: targets})
	return true
}

func (e *Engine) RemoveTargetList() {
	e.host.enqueue(ports.HostCommand{Type: ports.CommandRemoveTargetList})
}

func (e *Engine) ForceReset() {
	e.host.enqueue(ports.HostCommand{Type: ports.CommandForceReset})
}

func (e *Engine) OnDisabledChanged(handler func(domain.DisableEvent)) func() {
	return e.host.subscribeDisable(handler)
}

func (e *Engine) SendHintCommand(kind domain.HintKind, itemName string) {
	e.host.enqueue(ports.HostCommand{Type: ports.CommandHint, HintKind: string(kind), ItemName: itemName})
}
