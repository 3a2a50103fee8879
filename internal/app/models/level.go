package models

import "math"

// ExperienceForLevel returns the cumulative experience needed to reach level n.
// Level 1 starts at 0, level 2 at 100, level 3 at 300, level 4 at 600.
// Thresholds beyond the int64 range are clamped to math.MaxInt64.
func ExperienceForLevel(n int) int64 {
	if n <= 1 {
		return 0
	}
	if int64(n-1) > (math.MaxInt64/50)/int64(n) {
		return math.MaxInt64
	}
	return 50 * int64(n) * int64(n-1)
}

// LevelForExperience returns the highest level whose threshold is <= xp.
// Level n needs n(n-1) <= xp/50, so n = (1 + isqrt(1 + 4*(xp/50))) / 2.
func LevelForExperience(xp int64) int {
	if xp <= 0 {
		return 1
	}
	q := uint64(xp / 50)
	return int((1 + isqrt(1+4*q)) / 2)
}

// isqrt returns floor(sqrt(v))
func isqrt(v uint64) uint64 {
	r := uint64(math.Sqrt(float64(v)))
	for r > 0 && r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}

// LevelProgress describes where xp sits between two level thresholds
type LevelProgress struct {
	Level           int   `json:"level" example:"3"`
	Experience      int64 `json:"experience" example:"340"`
	CurrentLevelXP  int64 `json:"currentLevelXp" example:"300"`
	NextLevelXP     int64 `json:"nextLevelXp" example:"600"`
	ProgressPercent int   `json:"progressPercent" example:"13"`
}

// NewLevelProgress computes the level progress for an experience total
func NewLevelProgress(xp int64) LevelProgress {
	level := LevelForExperience(xp)
	current := ExperienceForLevel(level)
	next := ExperienceForLevel(level + 1)
	earned := xp - current
	if earned < 0 {
		earned = 0
	}
	return LevelProgress{
		Level:           level,
		Experience:      xp,
		CurrentLevelXP:  current,
		NextLevelXP:     next,
		ProgressPercent: int(earned * 100 / (next - current)),
	}
}
