package core

import "math"

// Progress returns the percentage of target reached, rounded and clamped to
// [0, 100]. A non-positive target yields 0.
func Progress(current, target float64) int {
	if target <= 0 || current <= 0 {
		return 0
	}
	pct := math.Round(current / target * 100)
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// IsAchieved reports whether the accumulated amount meets the target.
func IsAchieved(current, target float64) bool {
	return current >= target
}

// WithProgress returns a copy of g with the derived Progress field filled in.
func (g SavingGoal) WithProgress() SavingGoal {
	g.Progress = Progress(g.CurrentAmount, g.TargetAmount)
	return g
}
