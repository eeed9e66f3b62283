package gathering

import (
	"fmt"
	"time"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// Update advances the running session by one tick. The host may call it every
// frame; work happens at most once per Settings.TickInterval.
func (o *Orchestrator) Update() {
	if o.state != domain.StateRunning || o.session == nil {
		return
	}

	now := o.clock.Now()
	if now.Before(o.nextTickAt) {
		return
	}
	o.nextTickAt = now.Add(o.settings.TickInterval)

	defer func() {
		if r := recover(); r != nil {
			o.fault(r)
		}
	}()

	o.tick(now)
}

func (o *Orchestrator) tick(now time.Time) {
	s := o.session

	if o.deps.Operator != nil && !o.deps.Operator.InOperatingContext() {
		o.stopWithMessage("Stopped: operator left the gathering area")
		return
	}

	if s.awaitingNextTask {
		if now.Before(s.nextTaskAt) {
			return
		}
		s.awaitingNextTask = false
		o.startTask(o.currentIndex, now)
		return
	}

	task := o.queue[o.currentIndex]

	// Progress is checked first: new items clear every pending escalation
	count := o.readCount(task)
	o.observe(task, count, now)

	if task.IsComplete() {
		o.handleCompletion(task, now)
		return
	}

	engineEnabled := o.deps.Engine.IsEnabled()
	engineIdle := !engineEnabled || o.deps.Engine.IsWaiting()

	if engineIdle && !s.softRescanDone && now.Sub(s.lastDeltaAt) >= o.settings.SoftNoDeltaTimeout {
		s.softRescanDone = true
		s.fastPathReady = o.deps.Inventory.InitializeFastPath(task.ItemID())
		o.logger.Log("DEBUG", "No inventory change while engine idle, rescanning", map[string]interface{}{
			"item":  task.ItemName(),
			"since": now.Sub(s.lastDeltaAt).String(),
		})
		if o.observe(task, o.fullCount(task), now) {
			if task.IsComplete() {
				o.handleCompletion(task, now)
			}
			return
		}
	}

	// A disabled engine belongs to the escalation ladder; an enabled engine that sits
	// waiting without changing the inventory is a stall.
	if engineEnabled && o.deps.Engine.IsWaiting() && now.Sub(s.lastDeltaAt) >= o.settings.HardNoDeltaTimeout {
		o.stall(task, "stall_no_delta",
			fmt.Sprintf("engine idle with no inventory change for %s", now.Sub(s.lastDeltaAt).Round(time.Second)), now)
		return
	}

	o.checkLiveness(task, now)
	if o.session != s || task.IsTerminal() || o.state != domain.StateRunning {
		return
	}

	if now.Sub(s.lastProgressAt) >= o.settings.AbsoluteStallTimeout {
		o.stall(task, "stall_absolute",
			fmt.Sprintf("no progress for %s", now.Sub(s.lastProgressAt).Round(time.Second)), now)
	}
}

// readCount prefers the cached slot; a stale slot is re-initialized and the count
// falls back to a full scan. A pending inventory-change hint forces the full scan.
func (o *Orchestrator) readCount(task *domain.Task) int {
	s := o.session
	if s.inventoryDirty.Swap(false) {
		return o.fullCount(task)
	}
	if s.fastPathReady {
		if count, ok := o.deps.Inventory.CachedCount(); ok {
			return count
		}
		o.logger.Log("DEBUG", "Cached inventory slot went stale", map[string]interface{}{
			"item": task.ItemName(),
		})
		s.fastPathReady = o.deps.Inventory.InitializeFastPath(task.ItemID())
	}
	return o.fullCount(task)
}

func (o *Orchestrator) fullCount(task *domain.Task) int {
	return o.deps.Inventory.GetCount(task.ItemID(), o.settings.IncludeAuxiliaryStorage)
}

// observe folds a count into the task. Returns true on genuine progress, which
// resets every stall timer and all escalation counters.
func (o *Orchestrator) observe(task *domain.Task, count int, now time.Time) bool {
	s := o.session
	if count != s.lastKnownCount {
		s.lastKnownCount = count
		s.lastDeltaAt = now
	}

	before := task.QuantityObserved()
	if !task.RecordObserved(count - s.baselines[task.ItemID()]) {
		return false
	}

	gained := task.QuantityObserved() - before
	o.metrics.RecordItemsGathered(task.ItemName(), gained)
	s.resetTimers(now)
	s.clearEscalation()
	s.finishWaitStartedAt = time.Time{}
	o.statusMessage = fmt.Sprintf("Gathering %s: %d/%d", task.ItemName(), task.QuantityObserved(), task.QuantityNeeded())
	o.logger.Log("DEBUG", "Gathering progress", map[string]interface{}{
		"item":     task.ItemName(),
		"gained":   gained,
		"observed": task.QuantityObserved(),
		"needed":   task.QuantityNeeded(),
	})
	return true
}

// handleCompletion finishes a task whose goal is met, but lets an in-progress node
// interaction play out first (bounded by FinishTimeout)
func (o *Orchestrator) handleCompletion(task *domain.Task, now time.Time) {
	s := o.session
	if o.deps.Operator != nil && o.deps.Operator.IsInteracting() {
		if s.finishWaitStartedAt.IsZero() {
			s.finishWaitStartedAt = now
			o.logger.Log("INFO", "Goal met, waiting for node interaction to finish", map[string]interface{}{
				"item": task.ItemName(),
			})
		}
		if now.Sub(s.finishWaitStartedAt) < o.settings.FinishTimeout {
			o.statusMessage = fmt.Sprintf("Finishing %s: waiting for node interaction", task.ItemName())
			return
		}
	}

	if err := task.Complete(); err != nil {
		panic(err)
	}
	o.metrics.RecordTaskFinished(task.ItemName(), domain.TaskStatusCompleted, task.RetryCount())
	o.logger.Log("INFO", "Task completed", map[string]interface{}{
		"item":     task.ItemName(),
		"observed": task.QuantityObserved(),
		"retries":  task.RetryCount(),
	})
	o.advance(now)
}

// failTask marks the current task failed and moves on. Failures stay local to the task.
func (o *Orchestrator) failTask(task *domain.Task, message string, now time.Time) {
	if err := task.Fail(message); err != nil {
		panic(err)
	}
	o.metrics.RecordTaskFinished(task.ItemName(), domain.TaskStatusFailed, task.RetryCount())
	o.logger.Log("ERROR", "Task failed", map[string]interface{}{
		"item":    task.ItemName(),
		"reason":  message,
		"retries": task.RetryCount(),
	})
	o.advance(now)
}

// stall spends one retry on the current task, failing it once the budget is gone
func (o *Orchestrator) stall(task *domain.Task, kind, reason string, now time.Time) {
	o.metrics.RecordStall(kind)
	retries := task.IncrementRetry()
	if retries > o.settings.RetryLimit {
		o.failTask(task, fmt.Sprintf("stalled: %s (retry limit %d reached)", reason, o.settings.RetryLimit), now)
		return
	}

	o.logger.Log("WARNING", "Task stalled, restarting attempt", map[string]interface{}{
		"item":   task.ItemName(),
		"reason": reason,
		"retry":  retries,
		"limit":  o.settings.RetryLimit,
	})
	o.statusMessage = fmt.Sprintf("Retrying %s (%d/%d): %s", task.ItemName(), retries, o.settings.RetryLimit, reason)
	o.beginAttempt(task, now, true)
}

// advance moves the queue index forward past the finished task. The next task
// starts after InterTaskDelay, checked on a later tick.
func (o *Orchestrator) advance(now time.Time) {
	next := o.nextPendingIndex(o.currentIndex + 1)
	if next < 0 {
		o.finish(o.summary())
		return
	}

	o.currentIndex = next
	if o.settings.InterTaskDelay > 0 {
		o.session.awaitingNextTask = true
		o.session.nextTaskAt = now.Add(o.settings.InterTaskDelay)
		o.statusMessage = fmt.Sprintf("Next: %s", o.queue[next].ItemName())
		return
	}
	o.startTask(next, now)
}

// startTask begins task i. The previous task is already terminal.
func (o *Orchestrator) startTask(i int, now time.Time) {
	s := o.session
	task := o.queue[i]
	o.currentIndex = i
	if err := task.Begin(); err != nil {
		panic(err)
	}

	s.taskStartedAt = now
	s.finishWaitStartedAt = time.Time{}
	s.listRejected = false
	s.fastPathReady = o.deps.Inventory.InitializeFastPath(task.ItemID())

	// Items the engine picked up before this task's turn already count
	count := o.fullCount(task)
	s.lastKnownCount = count
	task.RecordObserved(count - s.baselines[task.ItemID()])

	o.logger.Log("INFO", "Task started", map[string]interface{}{
		"item":     task.ItemName(),
		"index":    i,
		"needed":   task.QuantityNeeded(),
		"observed": task.QuantityObserved(),
	})
	o.statusMessage = fmt.Sprintf("Gathering %s: %d/%d", task.ItemName(), task.QuantityObserved(), task.QuantityNeeded())

	if task.IsComplete() {
		s.resetTimers(now)
		return
	}
	// The list injected at Start already covers every queued item
	o.beginAttempt(task, now, !s.listInjected || !s.injected[task.ItemID()])
}

// beginAttempt (re)starts acquisition of the current task from scratch: fresh
// timers and counters, list injection when inject is set, hint command and enable.
func (o *Orchestrator) beginAttempt(task *domain.Task, now time.Time, inject bool) {
	s := o.session
	s.resetTimers(now)
	s.clearEscalation()
	s.lastReenableAt = time.Time{}
	s.mode = domain.ModeListDriven
	s.commandOnly = commandOnlyState{}

	if s.listRejected {
		o.enterCommandOnly(task, now, false, "engine cannot index this item")
		return
	}

	if inject && !o.injectTargets(task) {
		s.listRejected = true
		o.enterCommandOnly(task, now, false, "engine rejected the target list")
		return
	}

	o.deps.Engine.SendHintCommand(o.hintKind(task), task.ItemName())
	o.deps.Engine.SetEnabled(true)
}

// injectTargets writes the remaining queue into the engine's target list with
// absolute quantities (current count + remaining). If the engine rejects the full
// list, the current item alone is tried.
func (o *Orchestrator) injectTargets(task *domain.Task) bool {
	s := o.session
	items := make([]domain.TargetItem, 0, len(o.queue)-o.currentIndex)
	items = append(items, domain.TargetItem{ItemID: task.ItemID(), Quantity: o.absoluteTarget(task, s.lastKnownCount)})
	for _, t := range o.queue[o.currentIndex+1:] {
		if t.IsTerminal() || t.ItemID() == task.ItemID() {
			continue
		}
		items = append(items, domain.TargetItem{ItemID: t.ItemID(), Quantity: o.absoluteTarget(t, o.fullCount(t))})
	}

	if o.deps.Engine.SetTargetList(items) {
		s.markInjected(items)
		return true
	}
	if len(items) > 1 && o.deps.Engine.SetTargetList(items[:1]) {
		o.logger.Log("WARNING", "Engine rejected the full target list, injected current item only", map[string]interface{}{
			"item":  task.ItemName(),
			"items": len(items),
		})
		s.markInjected(items[:1])
		return true
	}

	s.clearInjected()
	o.logger.Log("WARNING", "Engine rejected the target list", map[string]interface{}{
		"item": task.ItemName(),
	})
	return false
}

// absoluteTarget converts a task's remaining quantity into the absolute inventory
// count the engine must reach
func (o *Orchestrator) absoluteTarget(task *domain.Task, count int) int {
	gained := count - o.session.baselines[task.ItemID()]
	if gained < task.QuantityObserved() {
		gained = task.QuantityObserved()
	}
	remaining := task.QuantityNeeded() - gained
	if remaining < 0 {
		remaining = 0
	}
	return count + remaining
}

func (o *Orchestrator) hintKind(task *domain.Task) domain.HintKind {
	if o.deps.Catalog != nil {
		if info, ok := o.deps.Catalog.Lookup(task.ItemID()); ok {
			return info.Class.HintKind()
		}
	}
	return domain.HintKindGeneric
}

func (o *Orchestrator) summary() string {
	completed, failed, skipped := 0, 0, 0
	for _, t := range o.queue {
		switch t.Status() {
		case domain.TaskStatusCompleted:
			completed++
		case domain.TaskStatusFailed:
			failed++
		case domain.TaskStatusSkipped:
			skipped++
		}
	}
	return fmt.Sprintf("Completed: %d/%d tasks (%d failed, %d skipped), %d items gathered",
		completed, len(o.queue), failed, skipped, o.TotalItemsGathered())
}
