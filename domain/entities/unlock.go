package entities

import "time"

// UnlockSource records how a player obtained a command
type UnlockSource string

const (
	UnlockSourceLesson UnlockSource = "lesson"
	UnlockSourceAdmin  UnlockSource = "admin"
)

// CommandUnlock represents a player's one-time purchase of a command
type CommandUnlock struct {
	PlayerID  string       `db:"player_id"`
	CommandID string       `db:"command_id"`
	Source    UnlockSource `db:"source"`
	CreatedAt time.Time    `db:"created_at"`
}

// UnlockSet is the set of command ids a player has purchased
type UnlockSet map[string]struct{}

// Contains reports whether the set includes the command
func (s UnlockSet) Contains(commandID string) bool {
	_, ok := s[commandID]
	return ok
}

// NewUnlockSet builds a set from unlock records
func NewUnlockSet(unlocks []*CommandUnlock) UnlockSet {
	set := make(UnlockSet, len(unlocks))
	for _, u := range unlocks {
		set[u.CommandID] = struct{}{}
	}
	return set
}
