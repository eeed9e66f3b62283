package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

type escalationLadderContext struct {
	input    domain.LadderInput
	decision domain.Decision
}

func (ec *escalationLadderContext) reset() {
	ec.input = domain.LadderInput{
		Mode: domain.ModeListDriven,
		Dependencies: domain.DependencySnapshot{
			EngineAvailable:  true,
			PathingAvailable: true,
			PathingReady:     true,
		},
		Settings: domain.DefaultSettings(),
	}
	ec.decision = domain.Decision{}
}

func (ec *escalationLadderContext) theEngineIsInMode(mode string) error {
	switch domain.Mode(mode) {
	case domain.ModeListDriven, domain.ModeCommandOnly:
		ec.input.Mode = domain.Mode(mode)
		return nil
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func (ec *escalationLadderContext) theEngineWasDisabledWithReasonAfterFailedAttempts(reason string, attempts int) error {
	ec.input.Snapshot = &domain.DisableSnapshot{DisableEvent: domain.DisableEvent{
		Disabled:       true,
		Reason:         domain.ParseDisableReason(reason),
		FailedAttempts: attempts,
	}}
	return nil
}

func (ec *escalationLadderContext) theReenableCooldownHasElapsed() error {
	ec.input.CooldownElapsed = true
	return nil
}

func (ec *escalationLadderContext) pathingIsNotReady() error {
	ec.input.Dependencies.PathingReady = false
	return nil
}

func (ec *escalationLadderContext) reenablesHaveAlreadyFailed(n int) error {
	ec.input.ReenableFailures = n
	return nil
}

func (ec *escalationLadderContext) resetCyclesHaveAlreadyRun(n int) error {
	ec.input.ResetCycles = n
	return nil
}

func (ec *escalationLadderContext) theLadderIsEvaluated() error {
	ec.decision = domain.EvaluateLadder(ec.input)
	return nil
}

func (ec *escalationLadderContext) theLadderShouldChooseByRule(action, rule string) error {
	if string(ec.decision.Action) != action || ec.decision.Rule != rule {
		return fmt.Errorf("expected %s by %s, got %s by %s", action, rule, ec.decision.Action, ec.decision.Rule)
	}
	return nil
}

// InitializeEscalationLadderScenario registers the ladder decision steps
func InitializeEscalationLadderScenario(ctx *godog.ScenarioContext) {
	ec := &escalationLadderContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		ec.reset()
		return ctx, nil
	})

	ctx.Step(`^the engine is in "([^"]*)" mode$`, ec.theEngineIsInMode)
	ctx.Step(`^the engine was disabled with reason "([^"]*)" after (\d+) failed attempts$`, ec.theEngineWasDisabledWithReasonAfterFailedAttempts)
	ctx.Step(`^the re-enable cooldown has elapsed$`, ec.theReenableCooldownHasElapsed)
	ctx.Step(`^pathing is not ready$`, ec.pathingIsNotReady)
	ctx.Step(`^(\d+) re-enables have already failed$`, ec.reenablesHaveAlreadyFailed)
	ctx.Step(`^(\d+) reset cycles have already run$`, ec.resetCyclesHaveAlreadyRun)
	ctx.Step(`^the ladder is evaluated$`, ec.theLadderIsEvaluated)
	ctx.Step(`^the ladder should choose "([^"]*)" by rule "([^"]*)"$`, ec.theLadderShouldChooseByRule)
}
