package repository

import (
	"context"
	"fmt"

	"netrunner/application"
	"netrunner/database"
	"netrunner/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TransactionalEventPublisher buffers events during a transaction and
// publishes them only after commit
type TransactionalEventPublisher interface {
	interfaces.EventPublisher

	// Flush publishes all buffered events; called after commit
	Flush(ctx context.Context) error

	// Discard drops all buffered events; called on rollback
	Discard()
}

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher TransactionalEventPublisher

	playerRepo         interfaces.PlayerRepository
	cooldownRepo       interfaces.CooldownRepository
	invocationRepo     interfaces.InvocationRepository
	unlockRepo         interfaces.UnlockRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
}

type unitOfWorkFactory struct {
	db               *database.DB
	publisherFactory func() TransactionalEventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. publisherFactory is
// invoked once per unit of work so each transaction gets its own buffer.
func NewUnitOfWorkFactory(db *database.DB, publisherFactory func() TransactionalEventPublisher) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:               db,
		publisherFactory: publisherFactory,
	}
}

// Create creates a new UnitOfWork
func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: f.publisherFactory(),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.playerRepo = NewPlayerRepositoryScoped(tx)
	u.cooldownRepo = NewCooldownRepositoryScoped(tx)
	u.invocationRepo = NewInvocationRepositoryScoped(tx)
	u.unlockRepo = NewUnlockRepositoryScoped(tx)
	u.balanceHistoryRepo = NewBalanceHistoryRepositoryScoped(tx)

	return nil
}

// Commit commits the transaction and flushes pending events afterwards.
// Event publishing is best-effort once the database state is durable.
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// PlayerRepository returns the player repository for this unit of work
func (u *unitOfWork) PlayerRepository() interfaces.PlayerRepository {
	if u.playerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.playerRepo
}

// CooldownRepository returns the cooldown repository for this unit of work
func (u *unitOfWork) CooldownRepository() interfaces.CooldownRepository {
	if u.cooldownRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.cooldownRepo
}

// InvocationRepository returns the invocation repository for this unit of work
func (u *unitOfWork) InvocationRepository() interfaces.InvocationRepository {
	if u.invocationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.invocationRepo
}

// UnlockRepository returns the unlock repository for this unit of work
func (u *unitOfWork) UnlockRepository() interfaces.UnlockRepository {
	if u.unlockRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.unlockRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
