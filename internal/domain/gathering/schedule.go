package gathering

import (
	"sort"
	"time"
)

// ScheduleOptimizer reorders a queue so tasks sharing a zone run back to back.
// Zones keep the order in which they first appear. With prioritizeTimed, timed
// nodes lead their zone (open windows first, then soonest opening) and zones
// holding an open timed node move to the front.
type ScheduleOptimizer struct {
	catalog ItemCatalog
}

// NewScheduleOptimizer creates an optimizer backed by the item catalog
func NewScheduleOptimizer(catalog ItemCatalog) *ScheduleOptimizer {
	return &ScheduleOptimizer{catalog: catalog}
}

type scheduledTask struct {
	task      *Task
	index     int
	zone      string
	timed     bool
	openIn    time.Duration
	zoneIndex int
}

// Optimize returns a new slice with the reordered tasks; the input is not modified
func (o *ScheduleOptimizer) Optimize(tasks []*Task, prioritizeTimed bool, now time.Time) []*Task {
	entries := make([]scheduledTask, len(tasks))
	zoneOrder := make(map[string]int)
	zoneHasOpenTimed := make(map[string]bool)

	for i, t := range tasks {
		e := scheduledTask{task: t, index: i}
		if o.catalog != nil {
			if info, ok := o.catalog.Lookup(t.ItemID()); ok {
				e.zone = info.Zone
				if info.Timed != nil {
					e.timed = true
					e.openIn = info.Timed.Until(now)
				}
			}
		}
		if _, seen := zoneOrder[e.zone]; !seen {
			zoneOrder[e.zone] = len(zoneOrder)
		}
		e.zoneIndex = zoneOrder[e.zone]
		if e.timed && e.openIn == 0 {
			zoneHasOpenTimed[e.zone] = true
		}
		entries[i] = e
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if prioritizeTimed {
			aOpen, bOpen := zoneHasOpenTimed[a.zone], zoneHasOpenTimed[b.zone]
			if aOpen != bOpen {
				return aOpen
			}
		}
		if a.zoneIndex != b.zoneIndex {
			return a.zoneIndex < b.zoneIndex
		}
		if prioritizeTimed && a.timed != b.timed {
			return a.timed
		}
		if prioritizeTimed && a.timed && b.timed && a.openIn != b.openIn {
			return a.openIn < b.openIn
		}
		return a.index < b.index
	})

	ordered := make([]*Task, len(entries))
	for i, e := range entries {
		ordered[i] = e.task
	}
	return ordered
}
