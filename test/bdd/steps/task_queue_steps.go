package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// bddCatalog is shared by the queue and session scenarios
var bddCatalog = domain.NewStaticCatalog([]domain.ItemInfo{
	{ItemID: 101, Name: "Copper Ore", Class: domain.GatherClassMiner, NodeTier: 1, Zone: "Quarry"},
	{ItemID: 102, Name: "Tin Ore", Class: domain.GatherClassMiner, NodeTier: 1, Zone: "Quarry"},
	{ItemID: 201, Name: "Maple Log", Class: domain.GatherClassBotanist, NodeTier: 3, Zone: "Forest"},
})

type taskQueueContext struct {
	materials []domain.Material
	queue     []*domain.Task
}

func (qc *taskQueueContext) reset() {
	qc.materials = nil
	qc.queue = nil
}

func (qc *taskQueueContext) theMaterials(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		rawID := cellValue(table, row, "item_id")
		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid item id %q: %w", rawID, err)
		}
		rawRemaining := cellValue(table, row, "remaining")
		remaining, err := strconv.Atoi(rawRemaining)
		if err != nil {
			return fmt.Errorf("invalid remaining %q: %w", rawRemaining, err)
		}
		qc.materials = append(qc.materials, domain.Material{
			ItemID:    uint32(id),
			ItemName:  cellValue(table, row, "item_name"),
			Remaining: remaining,
		})
	}
	return nil
}

func (qc *taskQueueContext) iBuildTheQueueWithBuffer(buffer int) error {
	qc.queue = domain.BuildQueue(qc.materials, buffer)
	return nil
}

func (qc *taskQueueContext) iOptimizeTheQueue() error {
	noon := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	qc.queue = domain.NewScheduleOptimizer(bddCatalog).Optimize(qc.queue, false, noon)
	return nil
}

func (qc *taskQueueContext) theQueueShouldContainTasks(n int) error {
	if len(qc.queue) != n {
		return fmt.Errorf("expected %d tasks, got %d", n, len(qc.queue))
	}
	return nil
}

func (qc *taskQueueContext) queuedTaskShouldBeNeeding(position int, name string, needed int) error {
	if position < 1 || position > len(qc.queue) {
		return fmt.Errorf("no queued task %d (queue has %d)", position, len(qc.queue))
	}
	task := qc.queue[position-1]
	if task.ItemName() != name {
		return fmt.Errorf("expected task %d to be %s, got %s", position, name, task.ItemName())
	}
	if task.QuantityNeeded() != needed {
		return fmt.Errorf("expected %s to need %d, got %d", name, needed, task.QuantityNeeded())
	}
	return nil
}

func (qc *taskQueueContext) everyQueuedTaskShouldBe(status string) error {
	for _, task := range qc.queue {
		if string(task.Status()) != status {
			return fmt.Errorf("expected %s to be %s, got %s", task.ItemName(), status, task.Status())
		}
	}
	return nil
}

func (qc *taskQueueContext) theQueueOrderShouldBe(order string) error {
	names := make([]string, len(qc.queue))
	for i, task := range qc.queue {
		names[i] = task.ItemName()
	}
	if got := strings.Join(names, ", "); got != order {
		return fmt.Errorf("expected order %q, got %q", order, got)
	}
	return nil
}

// InitializeTaskQueueScenario registers the queue builder steps
func InitializeTaskQueueScenario(ctx *godog.ScenarioContext) {
	qc := &taskQueueContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		qc.reset()
		return ctx, nil
	})

	ctx.Step(`^the materials$`, qc.theMaterials)
	ctx.Step(`^I build the queue with buffer (-?\d+)$`, qc.iBuildTheQueueWithBuffer)
	ctx.Step(`^I optimize the queue$`, qc.iOptimizeTheQueue)
	ctx.Step(`^the queue should contain (\d+) tasks$`, qc.theQueueShouldContainTasks)
	ctx.Step(`^queued task (\d+) should be "([^"]*)" needing (\d+)$`, qc.queuedTaskShouldBeNeeding)
	ctx.Step(`^every queued task should be "([^"]*)"$`, qc.everyQueuedTaskShouldBe)
	ctx.Step(`^the queue order should be "([^"]*)"$`, qc.theQueueOrderShouldBe)
}
