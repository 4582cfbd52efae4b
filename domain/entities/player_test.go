package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayer_ApplyDelta(t *testing.T) {
	player := &Player{Balance: 10}

	assert.Equal(t, int64(15), player.ApplyDelta(5))
	assert.Equal(t, int64(8), player.ApplyDelta(-2))

	// Penalties never push the balance below zero.
	assert.Equal(t, int64(0), player.ApplyDelta(-10))
	assert.Equal(t, int64(0), player.ApplyDelta(-999))
}

func TestPlayer_CanAfford(t *testing.T) {
	player := &Player{Balance: 80}

	assert.True(t, player.CanAfford(80))
	assert.True(t, player.CanAfford(1))
	assert.False(t, player.CanAfford(81))
}

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		experience int64
		level      int
	}{
		{0, 1},
		{99, 1},
		{100, 2},  // level 2 at 100 xp
		{299, 2},
		{300, 3},
		{999, 4},
		{1000, 5}, // level 5 at 1000 xp
		{9099, 13},
		{9100, 14}, // level 14 at 9100 xp
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForExperience(tt.experience),
			"experience %d should map to level %d", tt.experience, tt.level)
	}
}

func TestLevelForExperience_Monotonic(t *testing.T) {
	prev := 1
	for xp := int64(0); xp <= 20000; xp += 50 {
		level := LevelForExperience(xp)
		assert.GreaterOrEqual(t, level, prev, "level regressed at %d xp", xp)
		prev = level
	}
}
