package repository

import (
	"context"
	"fmt"

	"netrunner/database"
	"netrunner/domain/entities"
	"netrunner/infrastructure/observability"
)

// UnlockRepository implements the UnlockRepository interface
type UnlockRepository struct {
	q Queryable
}

// NewUnlockRepository creates a new unlock repository backed by the pool
func NewUnlockRepository(db *database.DB) *UnlockRepository {
	return &UnlockRepository{q: db.Pool}
}

// NewUnlockRepositoryScoped creates a new unlock repository bound to a transaction
func NewUnlockRepositoryScoped(tx Queryable) *UnlockRepository {
	return &UnlockRepository{q: tx}
}

// GetByPlayer returns all unlocks owned by a player
func (r *UnlockRepository) GetByPlayer(ctx context.Context, playerID string) ([]*entities.CommandUnlock, error) {
	defer observability.MeasureQuery("unlock", "GetByPlayer")()

	query := `
		SELECT player_id, command_id, source, created_at
		FROM command_unlocks
		WHERE player_id = $1
		ORDER BY created_at
	`
	rows, err := r.q.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocks for player %s: %w", playerID, err)
	}
	defer rows.Close()

	var unlocks []*entities.CommandUnlock
	for rows.Next() {
		var unlock entities.CommandUnlock
		if err := rows.Scan(&unlock.PlayerID, &unlock.CommandID, &unlock.Source, &unlock.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlock: %w", err)
		}
		unlocks = append(unlocks, &unlock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unlocks: %w", err)
	}

	return unlocks, nil
}

// Create records a new unlock
func (r *UnlockRepository) Create(ctx context.Context, unlock *entities.CommandUnlock) error {
	defer observability.MeasureQuery("unlock", "Create")()

	query := `
		INSERT INTO command_unlocks (player_id, command_id, source)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query, unlock.PlayerID, unlock.CommandID, unlock.Source).Scan(&unlock.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create unlock of %s for player %s: %w", unlock.CommandID, unlock.PlayerID, err)
	}
	return nil
}
