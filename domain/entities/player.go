package entities

import (
	"errors"
	"time"
)

// Player represents a player account with its balance and progression state
type Player struct {
	ID         string    `db:"id"`
	Handle     string    `db:"handle"`
	Balance    int64     `db:"balance"` // virtual currency (nops), never negative
	Experience int64     `db:"experience"`
	Level      int       `db:"level"`
	IsBanned   bool      `db:"is_banned"`
	BanReason  *string   `db:"ban_reason"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// CanAfford checks if the player has sufficient balance for an amount
func (p *Player) CanAfford(amount int64) bool {
	return p.Balance >= amount
}

// ValidateAmount checks if an amount is valid (positive and affordable)
func (p *Player) ValidateAmount(amount int64) error {
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	if !p.CanAfford(amount) {
		return errors.New("insufficient balance")
	}
	return nil
}

// ApplyDelta returns the balance after a change, clamped at zero.
// Penalties may exceed the current balance; the account never goes negative.
func (p *Player) ApplyDelta(delta int64) int64 {
	newBalance := p.Balance + delta
	if newBalance < 0 {
		return 0
	}
	return newBalance
}

// MeetsLevel checks if the player has reached the given level requirement
func (p *Player) MeetsLevel(required int) bool {
	return p.Level >= required
}

// LevelForExperience derives the level for a total experience amount.
// Level n requires 50*n*(n-1) total experience, so level 2 unlocks at 100 xp,
// level 5 at 1000 xp, level 14 at 9100 xp.
func LevelForExperience(experience int64) int {
	level := 1
	for experienceForLevel(level+1) <= experience {
		level++
	}
	return level
}

func experienceForLevel(level int) int64 {
	n := int64(level)
	return 50 * n * (n - 1)
}
