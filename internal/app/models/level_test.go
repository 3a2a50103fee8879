package models

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{xp: -5, want: 1},
		{xp: 0, want: 1},
		{xp: 99, want: 1},
		{xp: 100, want: 2},
		{xp: 299, want: 2},
		{xp: 300, want: 3},
		{xp: 600, want: 4},
		{xp: 4950, want: 10},
		{xp: 5499, want: 10},
		{xp: 5500, want: 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForExperience(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForExperience_Extremes(t *testing.T) {
	for _, xp := range []int64{1_000_000_000_000_000_000, 9_200_000_000_000_000_000, math.MaxInt64 - 1, math.MaxInt64} {
		level := LevelForExperience(xp)

		// 50*level*(level-1) <= xp < 50*(level+1)*level, checked without overflow
		n := big.NewInt(int64(level))
		lower := new(big.Int).Mul(big.NewInt(50), new(big.Int).Mul(n, new(big.Int).Sub(n, big.NewInt(1))))
		upper := new(big.Int).Mul(big.NewInt(50), new(big.Int).Mul(new(big.Int).Add(n, big.NewInt(1)), n))
		v := big.NewInt(xp)
		assert.True(t, lower.Cmp(v) <= 0, "xp=%d level=%d", xp, level)
		assert.True(t, upper.Cmp(v) > 0, "xp=%d level=%d", xp, level)
	}
	assert.Equal(t, 429496730, LevelForExperience(math.MaxInt64))
}

func TestExperienceForLevel_Clamped(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), ExperienceForLevel(429496731))

	p := NewLevelProgress(math.MaxInt64)
	assert.Equal(t, int64(math.MaxInt64), p.NextLevelXP)
	assert.GreaterOrEqual(t, p.ProgressPercent, 0)
	assert.LessOrEqual(t, p.ProgressPercent, 100)
}

func TestNewLevelProgress(t *testing.T) {
	p := NewLevelProgress(450)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, int64(300), p.CurrentLevelXP)
	assert.Equal(t, int64(600), p.NextLevelXP)
	assert.Equal(t, 50, p.ProgressPercent)
}

func TestRoleType(t *testing.T) {
	assert.True(t, RoleAssistant.IsStaff())
	assert.False(t, RoleStudent.IsStaff())
	assert.True(t, RoleStudent.BelongsToTutor())
	assert.False(t, RoleTutor.BelongsToTutor())
	assert.False(t, RoleType("INSTRUCTOR").IsValid())
}
