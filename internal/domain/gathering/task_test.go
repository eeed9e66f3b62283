package gathering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

func TestTask_Lifecycle(t *testing.T) {
	task := gathering.NewTask(1, "Copper Ore", 10)
	assert.Equal(t, gathering.TaskStatusPending, task.Status())
	assert.Equal(t, 10, task.QuantityRemaining())

	require.NoError(t, task.Begin())
	assert.True(t, task.RecordObserved(4))
	assert.Equal(t, 6, task.QuantityRemaining())
	assert.False(t, task.IsComplete())

	assert.True(t, task.RecordObserved(12))
	assert.Equal(t, 0, task.QuantityRemaining())
	assert.True(t, task.IsComplete())

	require.NoError(t, task.Complete())
	assert.True(t, task.IsTerminal())
}

func TestTask_ObservedNeverDecreases(t *testing.T) {
	task := gathering.NewTask(1, "Copper Ore", 10)
	require.NoError(t, task.Begin())

	task.RecordObserved(7)
	assert.False(t, task.RecordObserved(3), "a lower stale count must be ignored")
	assert.Equal(t, 7, task.QuantityObserved())
	assert.Equal(t, 3, task.QuantityRemaining())
}

func TestTask_InvalidTransitions(t *testing.T) {
	task := gathering.NewTask(1, "Copper Ore", 5)

	err := task.Complete()
	var transitionErr *gathering.ErrInvalidTaskTransition
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, gathering.TaskStatusPending, transitionErr.From)
	assert.Equal(t, gathering.TaskStatusCompleted, transitionErr.To)

	require.NoError(t, task.Begin())
	assert.Error(t, task.Begin())
	assert.Error(t, task.Skip("too late"), "only pending tasks can be skipped")

	require.NoError(t, task.Fail("inventory full"))
	assert.Equal(t, "inventory full", task.ErrorMessage())
	assert.Error(t, task.Fail("again"))
}

func TestTask_SkipKeepsRetryBudget(t *testing.T) {
	task := gathering.NewTask(1, "Mythril Ore", 3)
	require.NoError(t, task.Skip("requires a tier 5 node"))
	assert.Equal(t, gathering.TaskStatusSkipped, task.Status())
	assert.Equal(t, 0, task.RetryCount())
}

func TestNewTask_ClampsNegativeQuantity(t *testing.T) {
	task := gathering.NewTask(1, "Copper Ore", -4)
	assert.Equal(t, 0, task.QuantityNeeded())
	assert.True(t, task.IsComplete())
}

func TestBuildQueue(t *testing.T) {
	tasks := gathering.BuildQueue([]gathering.Material{
		{ItemID: 1, ItemName: "Copper Ore", Remaining: 5},
		{ItemID: 2, ItemName: "Maple Log", Remaining: 0},
		{ItemID: 3, ItemName: "Tin Ore", Remaining: 2},
	}, 2)

	require.Len(t, tasks, 2)
	assert.Equal(t, "Copper Ore", tasks[0].ItemName())
	assert.Equal(t, 7, tasks[0].QuantityNeeded())
	assert.Equal(t, "Tin Ore", tasks[1].ItemName())
	assert.Equal(t, 4, tasks[1].QuantityNeeded())
	for _, task := range tasks {
		assert.Equal(t, gathering.TaskStatusPending, task.Status())
	}
}

func TestBuildQueue_NegativeBufferIsZero(t *testing.T) {
	tasks := gathering.BuildQueue([]gathering.Material{{ItemID: 1, ItemName: "Copper Ore", Remaining: 5}}, -3)
	require.Len(t, tasks, 1)
	assert.Equal(t, 5, tasks[0].QuantityNeeded())
}

func TestBuildQueue_MergesRepeatedItems(t *testing.T) {
	tasks := gathering.BuildQueue([]gathering.Material{
		{ItemID: 1, ItemName: "Copper Ore", Remaining: 5},
		{ItemID: 3, ItemName: "Tin Ore", Remaining: 2},
		{ItemID: 1, ItemName: "Copper Ore", Remaining: 3},
		{ItemID: 3, ItemName: "Tin Ore", Remaining: 0},
	}, 1)

	require.Len(t, tasks, 2)
	assert.Equal(t, uint32(1), tasks[0].ItemID())
	assert.Equal(t, 9, tasks[0].QuantityNeeded(), "remaining is summed, buffer applied once")
	assert.Equal(t, uint32(3), tasks[1].ItemID())
	assert.Equal(t, 3, tasks[1].QuantityNeeded())
}

func TestBuildQueue_Empty(t *testing.T) {
	assert.Empty(t, gathering.BuildQueue(nil, 1))
}
