package repository

import (
	"context"
	"fmt"

	"netrunner/database"
	"netrunner/domain/entities"
	"netrunner/infrastructure/observability"

	"github.com/jackc/pgx/v5"
)

// InvocationRepository implements the InvocationRepository interface over the
// append-only invocation_traces ledger
type InvocationRepository struct {
	q Queryable
}

// NewInvocationRepository creates a new invocation repository backed by the pool
func NewInvocationRepository(db *database.DB) *InvocationRepository {
	return &InvocationRepository{q: db.Pool}
}

// NewInvocationRepositoryScoped creates a new invocation repository bound to a transaction
func NewInvocationRepositoryScoped(tx Queryable) *InvocationRepository {
	return &InvocationRepository{q: tx}
}

// GetByTraceID returns the trace for an idempotency token, or nil
func (r *InvocationRepository) GetByTraceID(ctx context.Context, playerID, traceID string) (*entities.InvocationTrace, error) {
	defer observability.MeasureQuery("invocation", "GetByTraceID")()

	query := `
		SELECT id, player_id, trace_id, command_id, ok, reason, delta, new_balance, xp_gained, next_eligible_at, created_at
		FROM invocation_traces
		WHERE player_id = $1 AND trace_id = $2
	`
	var trace entities.InvocationTrace
	err := r.q.QueryRow(ctx, query, playerID, traceID).Scan(
		&trace.ID,
		&trace.PlayerID,
		&trace.TraceID,
		&trace.CommandID,
		&trace.OK,
		&trace.Reason,
		&trace.Delta,
		&trace.NewBalance,
		&trace.ExperienceGain,
		&trace.NextEligibleAt,
		&trace.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trace %s for player %s: %w", traceID, playerID, err)
	}
	return &trace, nil
}

// Record appends a trace row. The (player_id, trace_id) unique constraint is
// the last line of defense against duplicate submissions that raced past the
// replay lookup; violations surface as retryable conflicts.
func (r *InvocationRepository) Record(ctx context.Context, trace *entities.InvocationTrace) error {
	defer observability.MeasureQuery("invocation", "Record")()

	query := `
		INSERT INTO invocation_traces (player_id, trace_id, command_id, ok, reason, delta, new_balance, xp_gained, next_eligible_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		trace.PlayerID,
		trace.TraceID,
		trace.CommandID,
		trace.OK,
		trace.Reason,
		trace.Delta,
		trace.NewBalance,
		trace.ExperienceGain,
		trace.NextEligibleAt,
	).Scan(&trace.ID, &trace.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record trace %s for player %s: %w", trace.TraceID, trace.PlayerID, err)
	}
	return nil
}

// GetByPlayer returns recent traces for a player, newest first
func (r *InvocationRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.InvocationTrace, error) {
	defer observability.MeasureQuery("invocation", "GetByPlayer")()

	query := `
		SELECT id, player_id, trace_id, command_id, ok, reason, delta, new_balance, xp_gained, next_eligible_at, created_at
		FROM invocation_traces
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get traces for player %s: %w", playerID, err)
	}
	defer rows.Close()

	var traces []*entities.InvocationTrace
	for rows.Next() {
		var trace entities.InvocationTrace
		err := rows.Scan(
			&trace.ID,
			&trace.PlayerID,
			&trace.TraceID,
			&trace.CommandID,
			&trace.OK,
			&trace.Reason,
			&trace.Delta,
			&trace.NewBalance,
			&trace.ExperienceGain,
			&trace.NextEligibleAt,
			&trace.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		traces = append(traces, &trace)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate traces: %w", err)
	}

	return traces, nil
}
