package repository

import (
	"context"
	"fmt"

	"netrunner/database"
	"netrunner/domain/entities"
	"netrunner/infrastructure/observability"

	"github.com/jackc/pgx/v5"
)

// PlayerRepository implements the PlayerRepository interface
type PlayerRepository struct {
	q Queryable
}

// NewPlayerRepository creates a new player repository backed by the pool
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{q: db.Pool}
}

// NewPlayerRepositoryScoped creates a new player repository bound to a transaction
func NewPlayerRepositoryScoped(tx Queryable) *PlayerRepository {
	return &PlayerRepository{q: tx}
}

const playerColumns = `id, handle, balance, experience, level, is_banned, ban_reason, created_at, updated_at`

func (r *PlayerRepository) scanPlayer(row pgx.Row) (*entities.Player, error) {
	var player entities.Player
	err := row.Scan(
		&player.ID,
		&player.Handle,
		&player.Balance,
		&player.Experience,
		&player.Level,
		&player.IsBanned,
		&player.BanReason,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// GetByID retrieves a player by id
func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (*entities.Player, error) {
	defer observability.MeasureQuery("player", "GetByID")()

	query := fmt.Sprintf(`SELECT %s FROM players WHERE id = $1`, playerColumns)
	player, err := r.scanPlayer(r.q.QueryRow(ctx, query, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", playerID, err)
	}
	return player, nil
}

// GetByIDForUpdate retrieves a player and locks the row until the enclosing
// transaction ends. Concurrent invocations for the same player queue here.
func (r *PlayerRepository) GetByIDForUpdate(ctx context.Context, playerID string) (*entities.Player, error) {
	defer observability.MeasureQuery("player", "GetByIDForUpdate")()

	query := fmt.Sprintf(`SELECT %s FROM players WHERE id = $1 FOR UPDATE`, playerColumns)
	player, err := r.scanPlayer(r.q.QueryRow(ctx, query, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %s: %w", playerID, err)
	}
	return player, nil
}

// Create creates a new player with the initial balance
func (r *PlayerRepository) Create(ctx context.Context, playerID, handle string, initialBalance int64) (*entities.Player, error) {
	defer observability.MeasureQuery("player", "Create")()

	query := `
		INSERT INTO players (id, handle, balance)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	player := &entities.Player{
		ID:      playerID,
		Handle:  handle,
		Balance: initialBalance,
		Level:   1,
	}
	err := r.q.QueryRow(ctx, query, playerID, handle, initialBalance).Scan(&player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", playerID, err)
	}
	return player, nil
}

// UpdateProgress persists balance, experience and level in one write
func (r *PlayerRepository) UpdateProgress(ctx context.Context, playerID string, balance, experience int64, level int) error {
	defer observability.MeasureQuery("player", "UpdateProgress")()

	query := `
		UPDATE players
		SET balance = $1, experience = $2, level = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.q.Exec(ctx, query, balance, experience, level, playerID)
	if err != nil {
		return fmt.Errorf("failed to update progress for player %s: %w", playerID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player %s not found", playerID)
	}
	return nil
}

// SetBanned flips the soft-ban flag
func (r *PlayerRepository) SetBanned(ctx context.Context, playerID string, banned bool, reason *string) error {
	defer observability.MeasureQuery("player", "SetBanned")()

	query := `
		UPDATE players
		SET is_banned = $1, ban_reason = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.q.Exec(ctx, query, banned, reason, playerID)
	if err != nil {
		return fmt.Errorf("failed to set ban state for player %s: %w", playerID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player %s not found", playerID)
	}
	return nil
}
