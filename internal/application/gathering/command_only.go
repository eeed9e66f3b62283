package gathering

import (
	"fmt"
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// enterCommandOnly drops the injected list and drives the current task through
// hint commands alone. byLadder records whether the ladder escalated into the mode,
// which buys the task its own reset cycles before giving up.
func (o *Orchestrator) enterCommandOnly(task *domain.Task, now time.Time, byLadder bool, why string) {
	s := o.session
	if s.listInjected {
		o.deps.Engine.RemoveTargetList()
		s.clearInjected()
	}

	s.mode = domain.ModeCommandOnly
	s.commandOnly = commandOnlyState{enteredByLadder: byLadder}

	o.logger.Log("WARNING", "Entering command-only mode", map[string]interface{}{
		"item":      task.ItemName(),
		"reason":    why,
		"by_ladder": byLadder,
	})
	o.statusMessage = fmt.Sprintf("Gathering %s (commands only): %s", task.ItemName(), why)
	o.nudge(task, now)
}

// nudge re-issues the hint command and re-enables the engine. Whether the engine
// accepted it is judged on the next tick.
func (o *Orchestrator) nudge(task *domain.Task, now time.Time) {
	co := &o.session.commandOnly
	o.deps.Engine.SendHintCommand(o.hintKind(task), task.ItemName())
	o.deps.Engine.SetEnabled(true)
	co.lastNudgeAt = now
	co.awaitingAck = true
}

// tickCommandOnly settles the last nudge and decides whether to nudge again,
// reset the engine or hand the task to the stall path
func (o *Orchestrator) tickCommandOnly(task *domain.Task, now time.Time, engineEnabled bool) {
	s := o.session
	co := &s.commandOnly

	if co.awaitingAck {
		co.awaitingAck = false
		if engineEnabled {
			co.refusals = 0
		} else {
			co.refusals++
			s.consumeDisable(s.peekDisable())
			o.logger.Log("DEBUG", "Engine refused the hint command", map[string]interface{}{
				"item":     task.ItemName(),
				"refusals": co.refusals,
			})
		}
	}

	decision := domain.EvaluateCommandOnly(domain.CommandOnlyInput{
		Refusals:        co.refusals,
		ResetCycles:     co.resetCycles,
		EnteredByLadder: co.enteredByLadder,
		IntervalElapsed: now.Sub(co.lastNudgeAt) >= o.settings.CommandOnlyInterval,
		Settings:        o.settings,
	})

	switch decision.Action {
	case domain.ActionStall:
		o.metrics.RecordEscalation(decision.Action, decision.Rule)
		o.stall(task, "stall_command_refused",
			fmt.Sprintf("engine refused %d hint commands", co.refusals), now)

	case domain.ActionResetCycle:
		o.metrics.RecordEscalation(decision.Action, decision.Rule)
		o.deps.Engine.ForceReset()
		co.resetCycles++
		co.refusals = 0
		o.logger.Log("WARNING", "Engine keeps refusing commands, resetting it", map[string]interface{}{
			"item":         task.ItemName(),
			"reset_cycles": co.resetCycles,
		})
		o.statusMessage = fmt.Sprintf("Gathering %s (commands only): reset cycle %d", task.ItemName(), co.resetCycles)
		o.nudge(task, now)

	case domain.ActionNudge:
		o.nudge(task, now)
	}
}
