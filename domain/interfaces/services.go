package interfaces

import (
	"context"

	"netrunner/domain/entities"
)

// ExecutionService is the sole mutator of player balance, experience and
// cooldown state in response to command invocations
type ExecutionService interface {
	// Execute runs one invocation attempt. It must be called inside a
	// transaction scoping all repositories it was constructed with.
	Execute(ctx context.Context, playerID, commandID, traceID string) (*entities.Outcome, error)
}

// UnlockService handles lesson purchases that unlock commands
type UnlockService interface {
	// PurchaseUnlock charges the unlock cost and records the unlock.
	// Purchasing an already-unlocked command is a no-op.
	PurchaseUnlock(ctx context.Context, playerID, commandID string) (*entities.CommandUnlock, error)
}

// ProfileService manages player account lifecycle
type ProfileService interface {
	// EnsurePlayer creates the account on first authentication; existing
	// accounts are returned unchanged
	EnsurePlayer(ctx context.Context, playerID, handle string) (*entities.Player, error)

	// GetProfile returns the player snapshot with unlocked command ids
	GetProfile(ctx context.Context, playerID string) (*entities.Player, entities.UnlockSet, error)

	// SetBanned flips the soft-ban flag
	SetBanned(ctx context.Context, playerID string, banned bool, reason *string) error
}
