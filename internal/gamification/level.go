package gamification

import "math"

// levelCost is the XP needed to go from level i-1 to level i.
func levelCost(level int) int {
	return int(math.Round(100 * math.Pow(float64(level), 1.5)))
}

// XPForLevel returns the cumulative XP required to hold the level: the
// sum of levelCost(2..level). Level 1 costs nothing.
func XPForLevel(level int) int {
	total := 0
	for i := 2; i <= level; i++ {
		total += levelCost(i)
	}
	return total
}

// Level returns the largest level whose cumulative cost does not exceed
// xp. Level(0) == 1; monotonically non-decreasing in xp.
func Level(xp int) int {
	level := 1
	remaining := xp
	for {
		cost := levelCost(level + 1)
		if remaining < cost {
			return level
		}
		remaining -= cost
		level++
	}
}

// Progress returns how far through the current level the member is, as
// a 0-100 percentage.
func Progress(xp int) int {
	level := Level(xp)
	floor := XPForLevel(level)
	span := XPForLevel(level+1) - floor
	if span == 0 {
		return 0
	}
	return (xp - floor) * 100 / span
}

// XPToNextLevel returns the XP still needed to reach the next level.
func XPToNextLevel(xp int) int {
	return XPForLevel(Level(xp)+1) - xp
}
