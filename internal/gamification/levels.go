package gamification

import "math"

// xpPerLevelUnit controls level pacing: each level requires 50 more xp
// than a linear scale would.
const xpPerLevelUnit = 50

// Level converts total experience to a 1-based level:
// level = 1 + floor(sqrt(xp/50)).
func Level(xp int64) int64 {
	if xp <= 0 {
		return 1
	}
	return 1 + int64(math.Sqrt(float64(xp)/xpPerLevelUnit))
}

// MinXP reports the experience floor of a level.
func MinXP(level int64) int64 {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return n * n * xpPerLevelUnit
}

// NextLevelXP reports the experience needed to reach the next level from
// xp.
func NextLevelXP(xp int64) int64 {
	return MinXP(Level(xp) + 1)
}
