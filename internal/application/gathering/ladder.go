package gathering

import (
	"fmt"
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// checkLiveness looks at the engine's enabled flag once per tick. An enabled engine
// in list mode clears the re-enable failure counter; a disabled one goes up the
// escalation ladder. Command-only mode keeps its own bookkeeping.
func (o *Orchestrator) checkLiveness(task *domain.Task, now time.Time) {
	s := o.session
	if o.deps.Engine.IsEnabled() {
		if s.mode == domain.ModeCommandOnly {
			o.tickCommandOnly(task, now, true)
			return
		}
		s.reenableFailures = 0
		return
	}
	o.escalate(task, now)
}

// escalate evaluates the ladder against the last disable snapshot and carries out
// the chosen remedy
func (o *Orchestrator) escalate(task *domain.Task, now time.Time) {
	s := o.session
	snap := s.peekDisable()

	o.deps.Monitor.Poll()
	in := domain.LadderInput{
		Mode:             s.mode,
		Snapshot:         snap,
		Dependencies:     o.deps.Monitor.Snapshot(),
		CooldownElapsed:  s.lastReenableAt.IsZero() || now.Sub(s.lastReenableAt) >= o.settings.ReenableCooldown,
		ReenableFailures: s.reenableFailures,
		ResetCycles:      s.resetCycles,
		Settings:         o.settings,
	}
	decision := domain.EvaluateLadder(in)

	switch decision.Action {
	case domain.ActionCooldown, domain.ActionNone:
		return
	case domain.ActionDelegate:
		o.tickCommandOnly(task, now, false)
		return
	}

	o.metrics.RecordEscalation(decision.Action, decision.Rule)
	fields := map[string]interface{}{
		"item":              task.ItemName(),
		"rule":              decision.Rule,
		"action":            string(decision.Action),
		"reenable_failures": s.reenableFailures,
		"reset_cycles":      s.resetCycles,
	}
	if snap != nil {
		fields["reason"] = string(snap.Reason)
		fields["engine_status"] = snap.Status
	}

	switch decision.Action {
	case domain.ActionStopSession:
		o.logger.Log("INFO", "Engine stopped by the operator, ending session", fields)
		o.stopWithMessage("Stopped: engine disabled by the operator")

	case domain.ActionFailTask:
		s.consumeDisable(snap)
		o.logger.Log("WARNING", "Engine disabled for an unrecoverable reason", fields)
		o.failTask(task, describeDisable(snap), now)

	case domain.ActionEnterCommandOnly:
		s.consumeDisable(snap)
		o.logger.Log("WARNING", "List-driven gathering is not working, switching to commands", fields)
		why := "list path broken"
		if decision.Rule == "reset-cycles-exhausted" {
			why = fmt.Sprintf("%d reset cycles without progress", s.resetCycles)
		}
		o.enterCommandOnly(task, now, true, why)

	case domain.ActionWaitDependency:
		// Waiting on the host is not the engine's fault and must not count as a stall
		s.lastProgressAt = now
		s.lastDeltaAt = now
		o.statusMessage = fmt.Sprintf("Waiting for %s: %s", task.ItemName(), waitReason(in.Dependencies))
		o.logger.Log("DEBUG", "Waiting for host dependencies", fields)

	case domain.ActionReenable:
		s.consumeDisable(snap)
		s.reenableFailures++
		s.lastReenableAt = now
		o.logger.Log("INFO", "Re-enabling engine", fields)
		o.deps.Engine.SetEnabled(true)

	case domain.ActionResetCycle:
		s.consumeDisable(snap)
		o.logger.Log("WARNING", "Engine keeps disabling, running a reset cycle", fields)
		o.resetCycle(task, now)
	}
}

// resetCycle force-resets the engine, re-injects the list and re-enables it
func (o *Orchestrator) resetCycle(task *domain.Task, now time.Time) {
	s := o.session
	o.deps.Engine.ForceReset()
	s.resetCycles++
	s.reenableFailures = 0
	s.lastReenableAt = now

	if !o.injectTargets(task) {
		s.listRejected = true
		o.enterCommandOnly(task, now, false, "engine rejected the target list after a reset")
		return
	}
	o.deps.Engine.SendHintCommand(o.hintKind(task), task.ItemName())
	o.deps.Engine.SetEnabled(true)
	o.statusMessage = fmt.Sprintf("Gathering %s: reset cycle %d", task.ItemName(), s.resetCycles)
}

func describeDisable(snap *domain.DisableSnapshot) string {
	if snap == nil {
		return "engine disabled"
	}
	switch snap.Reason {
	case domain.DisableReasonContainerFull:
		return "inventory full"
	case domain.DisableReasonMissingPrerequisite:
		if snap.Status != "" {
			return "missing prerequisite: " + snap.Status
		}
		return "missing prerequisite"
	}
	return fmt.Sprintf("engine disabled (%s)", snap.Reason)
}

func waitReason(deps domain.DependencySnapshot) string {
	switch {
	case deps.BlockReason != "":
		return deps.BlockReason
	case !deps.PathingAvailable:
		return "pathing unavailable"
	case !deps.PathingReady:
		return fmt.Sprintf("pathing building (%.0f%%)", deps.BuildProgress)
	}
	return "engine unavailable"
}
