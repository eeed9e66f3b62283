package bridge

import (
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// DependencyMonitor derives engine and pathing readiness from the polled state
type DependencyMonitor struct {
	host *Host
}

// NewDependencyMonitor creates a monitor over host
func NewDependencyMonitor(host *Host) *DependencyMonitor {
	return &DependencyMonitor{host: host}
}

// Poll asks for an early refresh; Snapshot still answers from the last poll
func (m *DependencyMonitor) Poll() {
	m.host.RequestPoll()
}

func (m *DependencyMonitor) Snapshot() domain.DependencySnapshot {
	state, fresh := m.host.current()
	if state == nil || !fresh {
		return domain.DependencySnapshot{BlockReason: "host bridge unreachable"}
	}
	return domain.DependencySnapshot{
		EngineAvailable:  state.Engine.Available,
		PathingAvailable: state.Pathing.Available,
		PathingReady:     state.Pathing.Ready,
		BuildProgress:    state.Pathing.BuildProgress,
		BlockReason:      state.Engine.BlockReason,
	}
}
