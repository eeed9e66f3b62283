package bridge

import (
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// Operator is the domain.Operator view of the polled player character
type Operator struct {
	host *Host
}

// NewOperator creates an operator adapter over host
func NewOperator(host *Host) *Operator {
	return &Operator{host: host}
}

func (o *Operator) Level(class domain.GatherClass) int {
	state, _ := o.host.current()
	if state == nil {
		return 0
	}
	return state.Operator.Levels[string(class)]
}

func (o *Operator) IsInteracting() bool {
	state, _ := o.host.current()
	return state != nil && state.Operator.Interacting
}

// InOperatingContext answers true until the first poll arrives, so a slow bridge
// start does not end a session
func (o *Operator) InOperatingContext() bool {
	state, _ := o.host.current()
	return state == nil || state.Operator.InOperatingContext
}
