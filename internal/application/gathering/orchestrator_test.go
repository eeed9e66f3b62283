package gathering_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
	"github.com/andrescamacho/gatherbot-go/test/helpers"
)

const (
	copperOre uint32 = 101
	tinOre    uint32 = 102
	mapleLog  uint32 = 201
)

var testCatalog = domain.NewStaticCatalog([]domain.ItemInfo{
	{ItemID: copperOre, Name: "Copper Ore", Class: domain.GatherClassMiner, NodeTier: 1, Zone: "Quarry"},
	{ItemID: tinOre, Name: "Tin Ore", Class: domain.GatherClassMiner, NodeTier: 1, Zone: "Quarry"},
	{ItemID: mapleLog, Name: "Maple Log", Class: domain.GatherClassBotanist, NodeTier: 3, Zone: "Forest"},
})

type harness struct {
	t      *testing.T
	host   *helpers.MockHost
	clock  *shared.MockClock
	logger *helpers.RecordingLogger
	orch   *gathering.Orchestrator
}

func newHarness(t *testing.T, tune func(*domain.Settings)) *harness {
	settings := domain.DefaultSettings()
	settings.InterTaskDelay = 0
	if tune != nil {
		tune(&settings)
	}

	h := &harness{
		t:      t,
		host:   helpers.NewMockHost(),
		clock:  shared.NewMockClock(time.Time{}),
		logger: helpers.NewRecordingLogger(),
	}
	h.orch = gathering.NewOrchestrator(gathering.Dependencies{
		Engine:    h.host,
		Inventory: h.host,
		Monitor:   h.host,
		Operator:  h.host,
		Catalog:   testCatalog,
	}, settings,
		gathering.WithClock(h.clock),
		gathering.WithLogger(h.logger),
		gathering.WithSessionIDGenerator(func() string { return "session-1" }),
	)
	return h
}

func (h *harness) start(materials ...domain.Material) {
	h.t.Helper()
	require.NoError(h.t, h.orch.BuildQueue(materials, 0))
	require.NoError(h.t, h.orch.Start())
}

// tick advances the clock by d and runs one update
func (h *harness) tick(d time.Duration) {
	h.clock.Advance(d)
	h.orch.Update()
}

func (h *harness) task(i int) *domain.Task {
	return h.orch.Tasks()[i]
}

// assertSequential checks that no task after a non-terminal one has started
func (h *harness) assertSequential() {
	h.t.Helper()
	open := false
	for _, task := range h.orch.Tasks() {
		if open {
			assert.Equal(h.t, domain.TaskStatusPending, task.Status(), "%s started before its predecessor finished", task.ItemName())
		}
		if !task.IsTerminal() && task.Status() != domain.TaskStatusPending {
			open = true
		}
	}
}

func material(id uint32, name string, remaining int) domain.Material {
	return domain.Material{ItemID: id, ItemName: name, Remaining: remaining}
}

func TestOrchestrator_CompletesTaskFromIncrementalProgress(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 10))

	assert.Equal(t, domain.StateRunning, h.orch.State())
	assert.Equal(t, domain.TaskStatusInProgress, h.task(0).Status())
	assert.True(t, h.host.IsEnabled())

	for _, units := range []int{2, 3, 5} {
		h.host.Gather(copperOre, units)
		h.tick(time.Second)
	}

	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
	assert.Equal(t, domain.StateCompleted, h.orch.State())
	assert.Equal(t, 10, h.orch.TotalItemsGathered())
	assert.False(t, h.host.IsEnabled(), "engine is disabled when the session ends")
	assert.Empty(t, h.host.Targets(), "target list is removed when the session ends")
	assert.Zero(t, h.host.Subscribers())
}

func TestOrchestrator_ContainerFullFailsTaskWithoutRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5), material(tinOre, "Tin Ore", 3))

	h.host.Disable(domain.DisableReasonContainerFull, 0)
	h.tick(time.Second)

	assert.Equal(t, domain.TaskStatusFailed, h.task(0).Status())
	assert.Equal(t, 0, h.task(0).RetryCount())
	assert.Equal(t, "inventory full", h.task(0).ErrorMessage())
	assert.Equal(t, domain.TaskStatusInProgress, h.task(1).Status(), "queue advances to the next task")
	assert.Equal(t, 1, h.orch.CurrentIndex())
	assert.Zero(t, h.host.ResetCalls)
}

func TestOrchestrator_AbsoluteStallRetriesThenFails(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.RetryLimit = 3 })
	h.start(material(copperOre, "Copper Ore", 5))
	injections := h.host.TargetListCallCount()

	for retry := 1; retry <= 3; retry++ {
		h.tick(domain.DefaultAbsoluteStallTimeout)
		require.Equal(t, domain.TaskStatusInProgress, h.task(0).Status(), "retry %d restarts the task", retry)
		assert.Equal(t, retry, h.task(0).RetryCount())
	}
	assert.Equal(t, injections+3, h.host.TargetListCallCount(), "every restart re-injects the list")

	h.tick(domain.DefaultAbsoluteStallTimeout)
	assert.Equal(t, domain.TaskStatusFailed, h.task(0).Status())
	assert.Contains(t, h.task(0).ErrorMessage(), "retry limit 3 reached")
	assert.Equal(t, domain.StateCompleted, h.orch.State())
	assert.True(t, h.orch.HasFailures())
}

func TestOrchestrator_RejectedListRunsOnCommandsOnly(t *testing.T) {
	h := newHarness(t, nil)
	h.host.RejectTargetLists = true
	h.start(material(copperOre, "Copper Ore", 6))

	assert.Equal(t, domain.ModeCommandOnly, h.orch.Mode())
	assert.Equal(t, 1, h.host.TargetListCallCount())
	assert.Contains(t, h.host.Hints, "mine:Copper Ore")
	assert.True(t, h.host.IsEnabled())

	for i := 0; i < 6; i++ {
		h.host.Gather(copperOre, 1)
		h.tick(10 * time.Second)
		if h.orch.State() == domain.StateRunning {
			assert.Equal(t, domain.ModeCommandOnly, h.orch.Mode())
		}
	}

	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
	assert.Equal(t, 1, h.host.TargetListCallCount(), "the list is never offered again")
}

func TestOrchestrator_ObservedNeverRegressesOnStaleCache(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 10))

	h.host.Gather(copperOre, 5)
	h.tick(time.Second)
	require.Equal(t, 5, h.task(0).QuantityRemaining())

	h.host.SetCachedCount(2)
	for i := 0; i < 3; i++ {
		h.tick(time.Second)
		assert.Equal(t, 5, h.task(0).QuantityRemaining())
	}
}

func TestOrchestrator_StaleCacheFallsBackToFullScan(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 4))

	h.host.SetCount(copperOre, 2)
	h.host.MarkCacheStale()
	h.tick(time.Second)

	assert.Equal(t, 2, h.task(0).QuantityObserved())
	assert.True(t, h.logger.Contains("DEBUG", "went stale"))
}

func TestOrchestrator_StopThenStartInjectsOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5), material(tinOre, "Tin Ore", 5))

	h.orch.Stop()
	h.orch.Stop()
	assert.Equal(t, domain.StateIdle, h.orch.State())
	assert.False(t, h.host.IsEnabled())
	assert.Empty(t, h.host.Targets())
	assert.Zero(t, h.host.Subscribers())

	before := h.host.TargetListCallCount()
	h.start(material(tinOre, "Tin Ore", 2))
	assert.Equal(t, before+1, h.host.TargetListCallCount())
}

func TestOrchestrator_InjectsAbsoluteTargets(t *testing.T) {
	h := newHarness(t, nil)
	h.host.SetCount(copperOre, 12)
	h.host.SetCount(tinOre, 3)
	h.start(material(copperOre, "Copper Ore", 8), material(tinOre, "Tin Ore", 4))

	targets := h.host.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, domain.TargetItem{ItemID: copperOre, Quantity: 20}, targets[0])
	assert.Equal(t, domain.TargetItem{ItemID: tinOre, Quantity: 7}, targets[1])
}

func TestOrchestrator_FallsBackToCurrentItemWhenFullListRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.host.MaxTargets = 1
	h.start(material(copperOre, "Copper Ore", 3), material(tinOre, "Tin Ore", 3))

	assert.Equal(t, domain.ModeListDriven, h.orch.Mode())
	targets := h.host.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, copperOre, targets[0].ItemID)

	h.host.Gather(copperOre, 3)
	h.tick(time.Second)
	assert.Equal(t, domain.TaskStatusInProgress, h.task(1).Status())
	require.Len(t, h.host.Targets(), 1)
	assert.Equal(t, tinOre, h.host.Targets()[0].ItemID, "the next task injects itself")
}

func TestOrchestrator_OpaqueDisablesEscalateToResetCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))
	enables := h.host.EnableCalls

	for i := 1; i <= 3; i++ {
		h.host.Disable(domain.DisableReasonUnknown, 0)
		h.tick(domain.DefaultReenableCooldown)
		require.True(t, h.host.IsEnabled(), "disable %d is answered with a re-enable", i)
		assert.Zero(t, h.host.ResetCalls)
	}
	assert.Equal(t, enables+3, h.host.EnableCalls)

	h.host.Disable(domain.DisableReasonUnknown, 0)
	h.tick(domain.DefaultReenableCooldown)
	assert.Equal(t, 1, h.host.ResetCalls, "the fourth disable runs exactly one reset cycle")
	assert.True(t, h.host.IsEnabled())

	// The failure counter restarted: three more re-enables before the next reset
	for i := 0; i < 3; i++ {
		h.host.Disable(domain.DisableReasonUnknown, 0)
		h.tick(domain.DefaultReenableCooldown)
	}
	assert.Equal(t, 1, h.host.ResetCalls)
}

func TestOrchestrator_ReenableRespectsCooldown(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))
	enables := h.host.EnableCalls

	h.host.Disable(domain.DisableReasonUnknown, 0)
	h.tick(time.Second)
	assert.Equal(t, enables+1, h.host.EnableCalls)

	h.host.Disable(domain.DisableReasonUnknown, 0)
	h.tick(time.Second)
	assert.Equal(t, enables+1, h.host.EnableCalls, "second re-enable waits for the cooldown")

	h.tick(domain.DefaultReenableCooldown)
	assert.Equal(t, enables+2, h.host.EnableCalls)
}

func TestOrchestrator_ProgressClearsEscalation(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 10))

	for i := 0; i < 3; i++ {
		h.host.Disable(domain.DisableReasonUnknown, 0)
		h.tick(domain.DefaultReenableCooldown)
	}
	h.host.Gather(copperOre, 1)
	h.tick(time.Second)

	h.host.Disable(domain.DisableReasonUnknown, 0)
	h.tick(domain.DefaultReenableCooldown)
	assert.Zero(t, h.host.ResetCalls, "progress resets the re-enable failure counter")
}

func TestOrchestrator_OperatorStopEndsSession(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))

	h.host.Disable(domain.DisableReasonOperatorStop, 0)
	h.tick(time.Second)

	assert.Equal(t, domain.StateIdle, h.orch.State())
	assert.Contains(t, h.orch.StatusMessage(), "operator")
	assert.False(t, h.orch.HasFailures())
}

func TestOrchestrator_RepeatedTargetFailureEntersCommandOnly(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))

	h.host.Disable(domain.DisableReasonFailedAtTarget, 2)
	h.tick(time.Second)

	assert.Equal(t, domain.ModeCommandOnly, h.orch.Mode())
	assert.Empty(t, h.host.Targets(), "command-only mode drops the list")
	assert.True(t, h.host.IsEnabled())
}

func TestOrchestrator_DependencyWaitDoesNotStall(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))

	h.host.SetDependencies(domain.DependencySnapshot{EngineAvailable: true, PathingAvailable: true, BuildProgress: 40})
	h.host.Disable(domain.DisableReasonUnknown, 0)

	for i := 0; i < 10; i++ {
		h.tick(time.Minute)
	}
	assert.Equal(t, domain.TaskStatusInProgress, h.task(0).Status())
	assert.Equal(t, 0, h.task(0).RetryCount())
	assert.Contains(t, h.orch.StatusMessage(), "pathing building (40%)")
}

func TestOrchestrator_HardNoDeltaStallsWaitingEngine(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.RetryLimit = 0 })
	h.start(material(copperOre, "Copper Ore", 5))
	h.host.SetWaiting(true)

	h.tick(domain.DefaultHardNoDeltaTimeout)

	assert.Equal(t, domain.TaskStatusFailed, h.task(0).Status())
	assert.Contains(t, h.task(0).ErrorMessage(), "engine idle with no inventory change")
}

func TestOrchestrator_SoftRescanPicksUpMissedProgress(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 4))
	h.host.SetWaiting(true)

	h.host.SetCachedCount(0)
	h.host.SetCount(copperOre, 4)
	h.tick(domain.DefaultSoftNoDeltaTimeout)

	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
}

func TestOrchestrator_CommandOnlyRefusalsStall(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.RetryLimit = 0 })
	h.host.RejectTargetLists = true
	h.host.RefuseEnable = true
	h.start(material(copperOre, "Copper Ore", 5))
	require.Equal(t, domain.ModeCommandOnly, h.orch.Mode())

	for i := 0; i < 5 && !h.task(0).IsTerminal(); i++ {
		h.tick(domain.DefaultCommandOnlyInterval)
	}

	assert.Equal(t, domain.TaskStatusFailed, h.task(0).Status())
	assert.Contains(t, h.task(0).ErrorMessage(), "refused")
	assert.Zero(t, h.host.ResetCalls, "a direct entry never resets the engine")
}

func TestOrchestrator_LadderRunsThroughCommandOnlyToStall(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) {
		s.RetryLimit = 0
		s.AbsoluteStallTimeout = 24 * time.Hour
	})
	h.start(material(copperOre, "Copper Ore", 5))

	for i := 0; i < 20 && h.orch.Mode() == domain.ModeListDriven; i++ {
		if h.host.ResetCalls == 3 {
			h.host.RefuseEnable = true
		}
		h.host.Disable(domain.DisableReasonUnknown, 0)
		h.tick(domain.DefaultReenableCooldown)
	}

	require.Equal(t, domain.ModeCommandOnly, h.orch.Mode())
	assert.Equal(t, 3, h.host.ResetCalls, "three list reset cycles before falling back to commands")
	assert.Empty(t, h.host.Targets())
	assert.Equal(t, domain.TaskStatusInProgress, h.task(0).Status())

	for i := 0; i < 30 && !h.task(0).IsTerminal(); i++ {
		h.tick(domain.DefaultCommandOnlyInterval)
	}

	assert.Equal(t, domain.TaskStatusFailed, h.task(0).Status())
	assert.Contains(t, h.task(0).ErrorMessage(), "refused")
	assert.Equal(t, 6, h.host.ResetCalls, "a ladder entry gets three command-only reset cycles")
	assert.Equal(t, domain.StateCompleted, h.orch.State())
	assert.True(t, h.orch.HasFailures())
}

func TestOrchestrator_RepeatedItemIsGatheredOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5), material(copperOre, "Copper Ore", 3))

	require.Len(t, h.orch.Tasks(), 1)
	assert.Equal(t, 8, h.task(0).QuantityNeeded())

	h.host.Gather(copperOre, 5)
	for i := 0; i < 3; i++ {
		h.tick(time.Second)
	}

	assert.Equal(t, domain.TaskStatusInProgress, h.task(0).Status())
	assert.Equal(t, 5, h.task(0).QuantityObserved())
	assert.Equal(t, 5, h.orch.TotalItemsGathered())

	h.host.Gather(copperOre, 3)
	h.tick(time.Second)
	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
	assert.Equal(t, 8, h.orch.TotalItemsGathered())
}

func TestOrchestrator_SkipsTasksAboveOperatorTier(t *testing.T) {
	h := newHarness(t, nil)
	h.host.SetLevel(domain.GatherClassBotanist, 5)
	h.start(material(mapleLog, "Maple Log", 3), material(copperOre, "Copper Ore", 2))

	assert.Equal(t, domain.TaskStatusSkipped, h.task(0).Status())
	assert.Contains(t, h.task(0).ErrorMessage(), "tier 3")
	assert.Equal(t, domain.TaskStatusInProgress, h.task(1).Status())
	assert.True(t, h.orch.HasSkippedTasks())
	assert.Equal(t, 1, h.orch.CurrentIndex())
}

func TestOrchestrator_AllSkippedCompletesImmediately(t *testing.T) {
	h := newHarness(t, nil)
	h.host.SetLevel(domain.GatherClassBotanist, 1)
	h.start(material(mapleLog, "Maple Log", 3))

	assert.Equal(t, domain.StateCompleted, h.orch.State())
	assert.Contains(t, h.orch.StatusMessage(), "no work")
}

func TestOrchestrator_WaitsForInteractionBeforeCompleting(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 2), material(tinOre, "Tin Ore", 2))
	h.host.SetInteracting(true)

	h.host.Gather(copperOre, 2)
	h.tick(time.Second)
	assert.Equal(t, domain.TaskStatusInProgress, h.task(0).Status())
	assert.Contains(t, h.orch.StatusMessage(), "waiting for node interaction")

	h.tick(domain.DefaultFinishTimeout)
	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status(), "finish wait is bounded")
	h.assertSequential()
}

func TestOrchestrator_InterTaskDelay(t *testing.T) {
	h := newHarness(t, func(s *domain.Settings) { s.InterTaskDelay = 2 * time.Second })
	h.start(material(copperOre, "Copper Ore", 1), material(tinOre, "Tin Ore", 1))

	h.host.Gather(copperOre, 1)
	h.tick(time.Second)
	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
	assert.Equal(t, domain.TaskStatusPending, h.task(1).Status())

	h.tick(time.Second)
	assert.Equal(t, domain.TaskStatusPending, h.task(1).Status())

	h.tick(time.Second)
	assert.Equal(t, domain.TaskStatusInProgress, h.task(1).Status())
}

func TestOrchestrator_NeverRunsTwoTasksAtOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 3), material(tinOre, "Tin Ore", 3), material(mapleLog, "Maple Log", 3))

	script := []func(){
		func() { h.host.Gather(copperOre, 2) },
		func() { h.host.Disable(domain.DisableReasonUnknown, 0) },
		func() { h.host.Gather(copperOre, 1) },
		func() { h.host.Disable(domain.DisableReasonContainerFull, 0) },
		func() { h.host.Gather(mapleLog, 3) },
	}
	for _, step := range script {
		step()
		h.tick(domain.DefaultReenableCooldown)
		h.assertSequential()
	}

	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
	assert.Equal(t, domain.TaskStatusFailed, h.task(1).Status())
	assert.Equal(t, domain.TaskStatusCompleted, h.task(2).Status())
	assert.Equal(t, domain.StateCompleted, h.orch.State())
}

func TestOrchestrator_ItemsGatheredBeforeTurnCount(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 2), material(tinOre, "Tin Ore", 2))

	h.host.Gather(tinOre, 2)
	h.host.Gather(copperOre, 2)
	h.tick(time.Second)

	assert.Equal(t, domain.TaskStatusCompleted, h.task(0).Status())
	assert.Equal(t, domain.TaskStatusInProgress, h.task(1).Status())
	h.tick(time.Second)
	assert.Equal(t, domain.StateCompleted, h.orch.State())
}

func TestOrchestrator_LeavingOperatingContextStops(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))

	h.host.LeaveOperatingContext()
	h.tick(time.Second)

	assert.Equal(t, domain.StateIdle, h.orch.State())
	assert.Contains(t, h.orch.StatusMessage(), "left the gathering area")
	assert.False(t, h.host.IsEnabled())
}

func TestOrchestrator_StartRefusedWhenEngineMissing(t *testing.T) {
	h := newHarness(t, nil)
	h.host.SetDependencies(domain.DependencySnapshot{BlockReason: "plugin not loaded"})
	require.NoError(t, h.orch.BuildQueue([]domain.Material{material(copperOre, "Copper Ore", 1)}, 0))

	err := h.orch.Start()
	var unavailable *domain.ErrEngineUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "plugin not loaded", unavailable.BlockReason)
	assert.Equal(t, domain.StateReady, h.orch.State())
}

func TestOrchestrator_StateGuards(t *testing.T) {
	h := newHarness(t, nil)

	var transition *domain.ErrInvalidStateTransition
	require.ErrorAs(t, h.orch.Start(), &transition)
	assert.Equal(t, domain.StateIdle, transition.State)

	h.start(material(copperOre, "Copper Ore", 5))
	assert.ErrorAs(t, h.orch.BuildQueue(nil, 0), &transition)
	assert.ErrorAs(t, h.orch.OptimizeQueue(false), &transition)
}

func TestOrchestrator_PanicMovesToError(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))

	h.host.PanicOnCount = true
	h.tick(time.Second)

	assert.Equal(t, domain.StateError, h.orch.State())
	assert.Contains(t, h.orch.StatusMessage(), "inventory read failed")
	assert.True(t, h.logger.Contains("ERROR", "fault"))
	assert.False(t, h.host.IsEnabled())
}

func TestOrchestrator_UpdateHonoursTickInterval(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 5))
	h.tick(0)

	h.host.Gather(copperOre, 1)
	h.tick(100 * time.Millisecond)
	assert.Equal(t, 0, h.task(0).QuantityObserved(), "no work before the tick interval elapses")

	h.tick(time.Second)
	assert.Equal(t, 1, h.task(0).QuantityObserved())
}

func TestOrchestrator_OptimizeQueue(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.orch.BuildQueue([]domain.Material{
		material(copperOre, "Copper Ore", 1),
		material(mapleLog, "Maple Log", 1),
		material(tinOre, "Tin Ore", 1),
	}, 1))
	require.NoError(t, h.orch.OptimizeQueue(false))

	tasks := h.orch.Tasks()
	assert.Equal(t, "Copper Ore", tasks[0].ItemName())
	assert.Equal(t, "Tin Ore", tasks[1].ItemName())
	assert.Equal(t, "Maple Log", tasks[2].ItemName())
	assert.Equal(t, 2, tasks[0].QuantityNeeded())
}

func TestOrchestrator_Snapshot(t *testing.T) {
	h := newHarness(t, nil)
	h.start(material(copperOre, "Copper Ore", 4))
	h.host.Gather(copperOre, 1)
	h.tick(time.Second)

	snap := h.orch.Snapshot()
	assert.Equal(t, "session-1", snap.SessionID)
	assert.Equal(t, domain.StateRunning, snap.State)
	assert.Equal(t, domain.ModeListDriven, snap.Mode)
	assert.Equal(t, 1, snap.TotalGathered)
	current, ok := snap.CurrentTask()
	require.True(t, ok)
	assert.Equal(t, "Copper Ore", current.ItemName)
	assert.Equal(t, 1, snap.Counts()[domain.TaskStatusInProgress])
}
