package gathering

import "time"

// GatherClass is the gathering discipline an item belongs to
type GatherClass string

const (
	GatherClassMiner    GatherClass = "MINER"
	GatherClassBotanist GatherClass = "BOTANIST"
	GatherClassFisher   GatherClass = "FISHER"
)

// HintKind maps a class to the nudge command the engine understands
func (c GatherClass) HintKind() HintKind {
	switch c {
	case GatherClassMiner:
		return HintKindMine
	case GatherClassBotanist:
		return HintKindHarvest
	case GatherClassFisher:
		return HintKindFish
	default:
		return HintKindGeneric
	}
}

// TimedWindow describes a node that only spawns for part of the day
type TimedWindow struct {
	StartHour int // 0-23, UTC
	Duration  time.Duration
}

// OpenAt reports whether the window is open at t
func (w TimedWindow) OpenAt(t time.Time) bool {
	return w.Until(t) == 0
}

// Until returns how long until the window next opens (0 when open now)
func (w TimedWindow) Until(t time.Time) time.Duration {
	t = t.UTC()
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{-1, 0, 1} {
		start := dayStart.AddDate(0, 0, offset).Add(time.Duration(w.StartHour) * time.Hour)
		if !t.Before(start) && t.Before(start.Add(w.Duration)) {
			return 0
		}
	}
	start := dayStart.Add(time.Duration(w.StartHour) * time.Hour)
	if !start.After(t) {
		start = start.AddDate(0, 0, 1)
	}
	return start.Sub(t)
}

// ItemInfo is the static metadata the orchestrator needs about an item
type ItemInfo struct {
	ItemID   uint32
	Name     string
	Class    GatherClass
	NodeTier int
	Zone     string
	Timed    *TimedWindow
}
