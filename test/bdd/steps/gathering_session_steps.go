package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
	"github.com/andrescamacho/gatherbot-go/test/helpers"
)

type gatheringSessionContext struct {
	host         *helpers.MockHost
	clock        *shared.MockClock
	settings     domain.Settings
	materials    []domain.Material
	orchestrator *gathering.Orchestrator
}

func (gc *gatheringSessionContext) reset() {
	gc.host = helpers.NewMockHost()
	gc.clock = shared.NewMockClock(time.Time{})
	gc.settings = domain.DefaultSettings()
	gc.settings.InterTaskDelay = 0
	gc.materials = nil
	gc.orchestrator = nil
}

func (gc *gatheringSessionContext) itemID(name string) (uint32, error) {
	for _, item := range bddCatalog.Items() {
		if item.Name == name {
			return item.ItemID, nil
		}
	}
	return 0, fmt.Errorf("unknown item: %s", name)
}

func (gc *gatheringSessionContext) task(position int) (*domain.Task, error) {
	tasks := gc.orchestrator.Tasks()
	if position < 1 || position > len(tasks) {
		return nil, fmt.Errorf("no task %d (queue has %d)", position, len(tasks))
	}
	return tasks[position-1], nil
}

func (gc *gatheringSessionContext) tick(d time.Duration) {
	gc.clock.Advance(d)
	gc.orchestrator.Update()
}

// Given steps

func (gc *gatheringSessionContext) aGatheringOrchestrator() error {
	return nil
}

func (gc *gatheringSessionContext) theRetryLimitIs(limit int) error {
	gc.settings.RetryLimit = limit
	return nil
}

func (gc *gatheringSessionContext) theEngineRejectsTargetLists() error {
	gc.host.RejectTargetLists = true
	return nil
}

func (gc *gatheringSessionContext) aMaterialWithRemaining(name string, remaining int) error {
	id, err := gc.itemID(name)
	if err != nil {
		return err
	}
	gc.materials = append(gc.materials, domain.Material{ItemID: id, ItemName: name, Remaining: remaining})
	return nil
}

// When steps

func (gc *gatheringSessionContext) theSessionStarts() error {
	if gc.orchestrator == nil {
		gc.orchestrator = gathering.NewOrchestrator(gathering.Dependencies{
			Engine:    gc.host,
			Inventory: gc.host,
			Monitor:   gc.host,
			Operator:  gc.host,
			Catalog:   bddCatalog,
		}, gc.settings,
			gathering.WithClock(gc.clock),
			gathering.WithSessionIDGenerator(func() string { return "bdd-session" }),
		)
	}
	if err := gc.orchestrator.BuildQueue(gc.materials, 0); err != nil {
		return err
	}
	return gc.orchestrator.Start()
}

func (gc *gatheringSessionContext) theSessionStartsAgainWith(name string, remaining int) error {
	gc.materials = nil
	if err := gc.aMaterialWithRemaining(name, remaining); err != nil {
		return err
	}
	return gc.theSessionStarts()
}

func (gc *gatheringSessionContext) theSessionIsStopped() error {
	gc.orchestrator.Stop()
	return nil
}

func (gc *gatheringSessionContext) unitsAreGatheredAndSecondsPass(units int, name string, seconds int) error {
	id, err := gc.itemID(name)
	if err != nil {
		return err
	}
	gc.host.Gather(id, units)
	gc.tick(time.Duration(seconds) * time.Second)
	return nil
}

func (gc *gatheringSessionContext) secondsPass(seconds int) error {
	gc.tick(time.Duration(seconds) * time.Second)
	return nil
}

func (gc *gatheringSessionContext) theEngineDisablesItselfWithReason(reason string) error {
	gc.host.Disable(domain.ParseDisableReason(reason), 0)
	return nil
}

func (gc *gatheringSessionContext) theItemCountStaysUnchangedPastTheStallTimeout(times int) error {
	for i := 0; i < times; i++ {
		gc.tick(gc.settings.AbsoluteStallTimeout)
	}
	return nil
}

func (gc *gatheringSessionContext) theEngineDisablesItselfAndTheCooldownPasses(times int) error {
	for i := 0; i < times; i++ {
		gc.host.Disable(domain.DisableReasonUnknown, 0)
		gc.tick(gc.settings.ReenableCooldown)
	}
	return nil
}

// Then steps

func (gc *gatheringSessionContext) taskShouldBe(position int, status string) error {
	task, err := gc.task(position)
	if err != nil {
		return err
	}
	if string(task.Status()) != status {
		return fmt.Errorf("expected task %d (%s) to be %s, got %s (%s)", position, task.ItemName(), status, task.Status(), task.ErrorMessage())
	}
	return nil
}

func (gc *gatheringSessionContext) taskShouldHaveRetries(position, retries int) error {
	task, err := gc.task(position)
	if err != nil {
		return err
	}
	if task.RetryCount() != retries {
		return fmt.Errorf("expected task %d to have %d retries, got %d", position, retries, task.RetryCount())
	}
	return nil
}

func (gc *gatheringSessionContext) theOrchestratorStateShouldBe(state string) error {
	if got := gc.orchestrator.State(); string(got) != state {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	return nil
}

func (gc *gatheringSessionContext) theModeShouldBe(mode string) error {
	if got := gc.orchestrator.Mode(); string(got) != mode {
		return fmt.Errorf("expected mode %s, got %s", mode, got)
	}
	return nil
}

func (gc *gatheringSessionContext) theTotalGatheredShouldBe(total int) error {
	if got := gc.orchestrator.TotalItemsGathered(); got != total {
		return fmt.Errorf("expected %d items gathered, got %d", total, got)
	}
	return nil
}

func (gc *gatheringSessionContext) theEngineShouldBeEnabled() error {
	if !gc.host.IsEnabled() {
		return fmt.Errorf("expected the engine to be enabled")
	}
	return nil
}

func (gc *gatheringSessionContext) theEngineShouldBeDisabled() error {
	if gc.host.IsEnabled() {
		return fmt.Errorf("expected the engine to be disabled")
	}
	return nil
}

func (gc *gatheringSessionContext) theEngineShouldHaveNoTargetList() error {
	if targets := gc.host.Targets(); len(targets) != 0 {
		return fmt.Errorf("expected no target list, got %d items", len(targets))
	}
	return nil
}

func (gc *gatheringSessionContext) theTargetListShouldHaveBeenOffered(times int) error {
	if got := gc.host.TargetListCallCount(); got != times {
		return fmt.Errorf("expected the target list to be offered %d times, got %d", times, got)
	}
	return nil
}

func (gc *gatheringSessionContext) theEngineShouldHaveBeenReset(times int) error {
	if gc.host.ResetCalls != times {
		return fmt.Errorf("expected %d reset cycles, got %d", times, gc.host.ResetCalls)
	}
	return nil
}

// InitializeGatheringSessionScenario registers the orchestrator session steps
func InitializeGatheringSessionScenario(ctx *godog.ScenarioContext) {
	gc := &gatheringSessionContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		gc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a gathering orchestrator$`, gc.aGatheringOrchestrator)
	ctx.Step(`^the retry limit is (\d+)$`, gc.theRetryLimitIs)
	ctx.Step(`^the engine rejects target lists$`, gc.theEngineRejectsTargetLists)
	ctx.Step(`^a material "([^"]*)" with (\d+) remaining$`, gc.aMaterialWithRemaining)

	// When steps
	ctx.Step(`^the session starts$`, gc.theSessionStarts)
	ctx.Step(`^the session starts again with "([^"]*)" at (\d+) remaining$`, gc.theSessionStartsAgainWith)
	ctx.Step(`^the session is stopped$`, gc.theSessionIsStopped)
	ctx.Step(`^(\d+) units? of "([^"]*)" (?:is|are) gathered and (\d+) seconds pass$`, gc.unitsAreGatheredAndSecondsPass)
	ctx.Step(`^(\d+) seconds pass$`, gc.secondsPass)
	ctx.Step(`^the engine disables itself with reason "([^"]*)"$`, gc.theEngineDisablesItselfWithReason)
	ctx.Step(`^the item count stays unchanged past the stall timeout (\d+) times$`, gc.theItemCountStaysUnchangedPastTheStallTimeout)
	ctx.Step(`^the engine disables itself (\d+) times and the cooldown passes each time$`, gc.theEngineDisablesItselfAndTheCooldownPasses)

	// Then steps
	ctx.Step(`^task (\d+) should be "([^"]*)"$`, gc.taskShouldBe)
	ctx.Step(`^task (\d+) should have (\d+) retries$`, gc.taskShouldHaveRetries)
	ctx.Step(`^the orchestrator state should be "([^"]*)"$`, gc.theOrchestratorStateShouldBe)
	ctx.Step(`^the mode should be "([^"]*)"$`, gc.theModeShouldBe)
	ctx.Step(`^the total gathered should be (\d+)$`, gc.theTotalGatheredShouldBe)
	ctx.Step(`^the engine should be enabled$`, gc.theEngineShouldBeEnabled)
	ctx.Step(`^the engine should be disabled$`, gc.theEngineShouldBeDisabled)
	ctx.Step(`^the engine should have no target list$`, gc.theEngineShouldHaveNoTargetList)
	ctx.Step(`^the target list should have been offered (\d+) times$`, gc.theTargetListShouldHaveBeenOffered)
	ctx.Step(`^the engine should have been reset (\d+) times$`, gc.theEngineShouldHaveBeenReset)
}
