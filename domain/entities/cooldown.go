package entities

import "time"

// CooldownRecord tracks when a player may next invoke a command. One record
// exists per player and command pair; it is overwritten on every invocation.
type CooldownRecord struct {
	PlayerID       string    `db:"player_id"`
	CommandID      string    `db:"command_id"`
	NextEligibleAt time.Time `db:"next_eligible_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// EligibleAt reports whether an invocation at the given instant is allowed.
// The boundary is inclusive: now == NextEligibleAt is eligible.
func (c *CooldownRecord) EligibleAt(now time.Time) bool {
	return !now.Before(c.NextEligibleAt)
}
