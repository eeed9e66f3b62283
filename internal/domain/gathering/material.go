package gathering

// Material is one line of a resolved material list: how many more units of an item
// are still required
type Material struct {
	ItemID    uint32 `yaml:"item_id" validate:"required"`
	ItemName  string `yaml:"item_name" validate:"required"`
	Remaining int    `yaml:"remaining"`
}

// BuildQueue turns a resolved material list into gathering tasks.
// Each task needs remaining+buffer units; materials with nothing remaining are dropped.
// An item listed more than once becomes a single task for the summed remaining, at
// its first position, since progress is measured per item. Input order is preserved.
func BuildQueue(materials []Material, buffer int) []*Task {
	if buffer < 0 {
		buffer = 0
	}

	merged := make([]Material, 0, len(materials))
	index := make(map[uint32]int, len(materials))
	for _, m := range materials {
		if m.Remaining <= 0 {
			continue
		}
		if i, ok := index[m.ItemID]; ok {
			merged[i].Remaining += m.Remaining
			continue
		}
		index[m.ItemID] = len(merged)
		merged = append(merged, m)
	}

	tasks := make([]*Task, 0, len(merged))
	for _, m := range merged {
		tasks = append(tasks, NewTask(m.ItemID, m.ItemName, m.Remaining+buffer))
	}
	return tasks
}
