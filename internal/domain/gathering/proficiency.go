package gathering

import "sort"

// TierStep unlocks MaxTier once the operator reaches MinLevel
type TierStep struct {
	MinLevel int
	MaxTier  int
}

// ProficiencyTiers is a monotonic step function from proficiency level to the
// highest source-node tier the operator can work
type ProficiencyTiers []TierStep

// DefaultProficiencyTiers unlocks one tier every ten levels
func DefaultProficiencyTiers() ProficiencyTiers {
	return ProficiencyTiers{
		{MinLevel: 1, MaxTier: 1},
		{MinLevel: 10, MaxTier: 2},
		{MinLevel: 20, MaxTier: 3},
		{MinLevel: 30, MaxTier: 4},
		{MinLevel: 40, MaxTier: 5},
		{MinLevel: 50, MaxTier: 6},
		{MinLevel: 60, MaxTier: 7},
		{MinLevel: 70, MaxTier: 8},
		{MinLevel: 80, MaxTier: 9},
		{MinLevel: 90, MaxTier: 10},
	}
}

// MaxTier returns the highest tier unlocked at level (0 below the first step)
func (p ProficiencyTiers) MaxTier(level int) int {
	steps := make([]TierStep, len(p))
	copy(steps, p)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].MinLevel < steps[j].MinLevel })

	tier := 0
	for _, step := range steps {
		if level < step.MinLevel {
			break
		}
		if step.MaxTier > tier {
			tier = step.MaxTier
		}
	}
	return tier
}

// CanGather reports whether a node of the given tier is reachable at level
func (p ProficiencyTiers) CanGather(level, nodeTier int) bool {
	return nodeTier <= p.MaxTier(level)
}
