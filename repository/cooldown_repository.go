package repository

import (
	"context"
	"fmt"
	"time"

	"netrunner/database"
	"netrunner/domain/entities"
	"netrunner/infrastructure/observability"

	"github.com/jackc/pgx/v5"
)

// CooldownRepository implements the CooldownRepository interface
type CooldownRepository struct {
	q Queryable
}

// NewCooldownRepository creates a new cooldown repository backed by the pool
func NewCooldownRepository(db *database.DB) *CooldownRepository {
	return &CooldownRepository{q: db.Pool}
}

// NewCooldownRepositoryScoped creates a new cooldown repository bound to a transaction
func NewCooldownRepositoryScoped(tx Queryable) *CooldownRepository {
	return &CooldownRepository{q: tx}
}

// Get returns the cooldown record for a player and command, or nil
func (r *CooldownRepository) Get(ctx context.Context, playerID, commandID string) (*entities.CooldownRecord, error) {
	defer observability.MeasureQuery("cooldown", "Get")()

	query := `
		SELECT player_id, command_id, next_eligible_at, updated_at
		FROM cooldowns
		WHERE player_id = $1 AND command_id = $2
	`
	var record entities.CooldownRecord
	err := r.q.QueryRow(ctx, query, playerID, commandID).Scan(
		&record.PlayerID,
		&record.CommandID,
		&record.NextEligibleAt,
		&record.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cooldown for player %s command %s: %w", playerID, commandID, err)
	}
	return &record, nil
}

// Upsert writes the next eligible time, overwriting any prior record
func (r *CooldownRepository) Upsert(ctx context.Context, playerID, commandID string, nextEligibleAt time.Time) error {
	defer observability.MeasureQuery("cooldown", "Upsert")()

	query := `
		INSERT INTO cooldowns (player_id, command_id, next_eligible_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (player_id, command_id)
		DO UPDATE SET next_eligible_at = EXCLUDED.next_eligible_at, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, playerID, commandID, nextEligibleAt); err != nil {
		return fmt.Errorf("failed to upsert cooldown for player %s command %s: %w", playerID, commandID, err)
	}
	return nil
}
