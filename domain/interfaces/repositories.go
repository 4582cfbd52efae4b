package interfaces

import (
	"context"
	"time"

	"netrunner/domain/entities"
	"netrunner/domain/events"
)

// PlayerRepository defines the interface for player account data access
type PlayerRepository interface {
	// GetByID retrieves a player by id, or nil when absent
	GetByID(ctx context.Context, playerID string) (*entities.Player, error)

	// GetByIDForUpdate retrieves a player and locks the row for the duration
	// of the enclosing transaction, serializing concurrent invocations
	GetByIDForUpdate(ctx context.Context, playerID string) (*entities.Player, error)

	// Create creates a new player with the initial balance
	Create(ctx context.Context, playerID, handle string, initialBalance int64) (*entities.Player, error)

	// UpdateProgress persists balance, experience and level in one write
	UpdateProgress(ctx context.Context, playerID string, balance, experience int64, level int) error

	// SetBanned flips the soft-ban flag; accounts are never deleted
	SetBanned(ctx context.Context, playerID string, banned bool, reason *string) error
}

// CooldownRepository defines the interface for cooldown record access
type CooldownRepository interface {
	// Get returns the cooldown record for a player and command, or nil when
	// the command has never been invoked
	Get(ctx context.Context, playerID, commandID string) (*entities.CooldownRecord, error)

	// Upsert writes the next eligible time, overwriting any prior record
	Upsert(ctx context.Context, playerID, commandID string, nextEligibleAt time.Time) error
}

// InvocationRepository defines the interface for the append-only trace ledger
type InvocationRepository interface {
	// GetByTraceID returns the trace for an idempotency token, or nil
	GetByTraceID(ctx context.Context, playerID, traceID string) (*entities.InvocationTrace, error)

	// Record appends a trace row; (player_id, trace_id) is unique
	Record(ctx context.Context, trace *entities.InvocationTrace) error

	// GetByPlayer returns recent traces for a player, newest first
	GetByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.InvocationTrace, error)
}

// UnlockRepository defines the interface for command unlock access
type UnlockRepository interface {
	// GetByPlayer returns all unlocks owned by a player
	GetByPlayer(ctx context.Context, playerID string) ([]*entities.CommandUnlock, error)

	// Create records a new unlock
	Create(ctx context.Context, unlock *entities.CommandUnlock) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByPlayer returns balance history for a player, newest first
	GetByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}
