package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"netrunner/domain/catalog"
	"netrunner/domain/entities"
	"netrunner/domain/services"
	"netrunner/infrastructure/observability"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// ErrTransactionAborted is returned when a transaction could not commit
// within the bounded number of retries. Nothing was persisted; the caller may
// safely retry with the same trace id.
var ErrTransactionAborted = errors.New("transaction aborted after retries")

const (
	maxExecuteAttempts = 3
	retryBackoff       = 25 * time.Millisecond
)

// CommandExecutor orchestrates domain services inside unit-of-work
// transactions. It is the only caller of the execution authority; each
// operation runs in exactly one transaction, retried a bounded number of
// times on store-level contention.
type CommandExecutor struct {
	uowFactory      UnitOfWorkFactory
	catalog         *catalog.Catalog
	startingBalance int64
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(uowFactory UnitOfWorkFactory, cat *catalog.Catalog, startingBalance int64) *CommandExecutor {
	return &CommandExecutor{
		uowFactory:      uowFactory,
		catalog:         cat,
		startingBalance: startingBalance,
	}
}

// Catalog exposes the command catalog for read-only listing
func (e *CommandExecutor) Catalog() *catalog.Catalog {
	return e.catalog
}

// ExecuteCommand runs one invocation attempt for a player. The command id is
// resolved against the in-memory catalog before any transaction is opened, so
// unknown commands persist nothing.
func (e *CommandExecutor) ExecuteCommand(ctx context.Context, playerID, commandID, traceID string) (*entities.Outcome, error) {
	if _, err := e.catalog.Get(commandID); err != nil {
		return nil, err
	}

	start := time.Now()
	var outcome *entities.Outcome
	var lastErr error
	for attempt := 1; attempt <= maxExecuteAttempts; attempt++ {
		outcome, lastErr = e.executeOnce(ctx, playerID, commandID, traceID)
		if lastErr == nil {
			if m := observability.GetMetrics(); m != nil {
				m.RecordCommandExecuted(commandID, string(outcome.Reason), time.Since(start))
			}
			return outcome, nil
		}
		if !isRetryableConflict(lastErr) {
			return nil, lastErr
		}
		if m := observability.GetMetrics(); m != nil {
			m.RecordExecuteRetry(commandID)
		}
		log.WithFields(log.Fields{
			"playerID":  playerID,
			"commandID": commandID,
			"traceID":   traceID,
			"attempt":   attempt,
			"error":     lastErr,
		}).Warn("Execution transaction conflicted, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrTransactionAborted, lastErr)
}

func (e *CommandExecutor) executeOnce(ctx context.Context, playerID, commandID, traceID string) (*entities.Outcome, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewExecutionService(
		e.catalog,
		uow.PlayerRepository(),
		uow.CooldownRepository(),
		uow.InvocationRepository(),
		uow.UnlockRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)

	outcome, err := svc.Execute(ctx, playerID, commandID, traceID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, nil
}

// PurchaseUnlock buys a command unlock for a player
func (e *CommandExecutor) PurchaseUnlock(ctx context.Context, playerID, commandID string) (*entities.CommandUnlock, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewUnlockService(
		e.catalog,
		uow.PlayerRepository(),
		uow.UnlockRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)

	unlock, err := svc.PurchaseUnlock(ctx, playerID, commandID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	if m := observability.GetMetrics(); m != nil {
		m.RecordUnlockPurchased(commandID)
	}
	return unlock, nil
}

// EnsurePlayer creates the player account on first authentication. Two
// concurrent first-auth requests can both pass the existence check, since
// FOR UPDATE does not lock a row that is not there yet; the loser's duplicate
// insert fails with a unique violation and the retry finds the committed row.
func (e *CommandExecutor) EnsurePlayer(ctx context.Context, playerID, handle string) (*entities.Player, error) {
	var player *entities.Player
	var lastErr error
	for attempt := 1; attempt <= maxExecuteAttempts; attempt++ {
		player, lastErr = e.ensurePlayerOnce(ctx, playerID, handle)
		if lastErr == nil {
			return player, nil
		}
		if !isRetryableConflict(lastErr) {
			return nil, lastErr
		}
		log.WithFields(log.Fields{
			"playerID": playerID,
			"attempt":  attempt,
			"error":    lastErr,
		}).Warn("Profile transaction conflicted, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrTransactionAborted, lastErr)
}

func (e *CommandExecutor) ensurePlayerOnce(ctx context.Context, playerID, handle string) (*entities.Player, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewProfileService(
		uow.PlayerRepository(),
		uow.UnlockRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		e.startingBalance,
	)

	player, err := svc.EnsurePlayer(ctx, playerID, handle)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return player, nil
}

// GetProfile returns the player snapshot plus unlocked command ids
func (e *CommandExecutor) GetProfile(ctx context.Context, playerID string) (*entities.Player, entities.UnlockSet, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewProfileService(
		uow.PlayerRepository(),
		uow.UnlockRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		e.startingBalance,
	)

	player, unlocked, err := svc.GetProfile(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return player, unlocked, nil
}

// isRetryableConflict classifies store-level contention errors. Serialization
// failures and deadlocks retry the whole transaction; a duplicate trace
// insert means a concurrent request with the same trace id committed first,
// and the retry resolves it as an idempotent replay.
func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	}
	return false
}
