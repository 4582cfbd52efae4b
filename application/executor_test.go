package application

import (
	"context"
	"errors"
	"testing"

	"netrunner/domain/catalog"
	"netrunner/domain/entities"
	"netrunner/domain/interfaces"
	"netrunner/domain/services"
	"netrunner/domain/testhelpers"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeUnitOfWork drives the executor against mocked repositories, with a
// scripted commit error per attempt
type fakeUnitOfWork struct {
	playerRepo     *testhelpers.MockPlayerRepository
	cooldownRepo   *testhelpers.MockCooldownRepository
	invocationRepo *testhelpers.MockInvocationRepository
	unlockRepo     *testhelpers.MockUnlockRepository
	historyRepo    *testhelpers.MockBalanceHistoryRepository
	publisher      *testhelpers.MockEventPublisher

	commitErrs []error
	begins     int
	commits    int
	rollbacks  int
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error {
	f.begins++
	return nil
}

func (f *fakeUnitOfWork) Commit() error {
	f.commits++
	if len(f.commitErrs) > 0 {
		err := f.commitErrs[0]
		f.commitErrs = f.commitErrs[1:]
		return err
	}
	return nil
}

func (f *fakeUnitOfWork) Rollback() error {
	f.rollbacks++
	return nil
}

func (f *fakeUnitOfWork) PlayerRepository() interfaces.PlayerRepository        { return f.playerRepo }
func (f *fakeUnitOfWork) CooldownRepository() interfaces.CooldownRepository    { return f.cooldownRepo }
func (f *fakeUnitOfWork) InvocationRepository() interfaces.InvocationRepository {
	return f.invocationRepo
}
func (f *fakeUnitOfWork) UnlockRepository() interfaces.UnlockRepository { return f.unlockRepo }
func (f *fakeUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return f.historyRepo
}
func (f *fakeUnitOfWork) EventBus() interfaces.EventPublisher { return f.publisher }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) Create() UnitOfWork { return f.uow }

func newFakeUnitOfWork(commitErrs ...error) *fakeUnitOfWork {
	return &fakeUnitOfWork{
		playerRepo:     new(testhelpers.MockPlayerRepository),
		cooldownRepo:   new(testhelpers.MockCooldownRepository),
		invocationRepo: new(testhelpers.MockInvocationRepository),
		unlockRepo:     new(testhelpers.MockUnlockRepository),
		historyRepo:    new(testhelpers.MockBalanceHistoryRepository),
		publisher:      new(testhelpers.MockEventPublisher),
		commitErrs:     commitErrs,
	}
}

// allowHappyPath sets permissive expectations so the execution service runs a
// full successful invocation on every attempt
func (f *fakeUnitOfWork) allowHappyPath() {
	player := &entities.Player{ID: "player-1", Handle: "neo", Balance: 10, Level: 1}
	f.invocationRepo.On("GetByTraceID", mock.Anything, "player-1", "trace-1").Return(nil, nil)
	f.playerRepo.On("GetByIDForUpdate", mock.Anything, "player-1").Return(player, nil)
	f.unlockRepo.On("GetByPlayer", mock.Anything, "player-1").Return([]*entities.CommandUnlock{}, nil)
	f.cooldownRepo.On("Get", mock.Anything, "player-1", "phish").Return(nil, nil)
	f.playerRepo.On("UpdateProgress", mock.Anything, "player-1", mock.AnythingOfType("int64"), mock.AnythingOfType("int64"), mock.AnythingOfType("int")).Return(nil)
	f.historyRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.BalanceHistory")).Return(nil)
	f.cooldownRepo.On("Upsert", mock.Anything, "player-1", "phish", mock.AnythingOfType("time.Time")).Return(nil)
	f.invocationRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.InvocationTrace")).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)
}

func serializationFailure() *pgconn.PgError {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func newTestExecutor(t *testing.T, uow *fakeUnitOfWork) *CommandExecutor {
	t.Helper()
	cat, err := catalog.New(catalog.DefaultDefinitions())
	require.NoError(t, err)
	return NewCommandExecutor(&fakeFactory{uow: uow}, cat, 0)
}

func TestCommandExecutor_ExecuteCommand_Success(t *testing.T) {
	uow := newFakeUnitOfWork()
	uow.allowHappyPath()
	executor := newTestExecutor(t, uow)

	outcome, err := executor.ExecuteCommand(context.Background(), "player-1", "phish", "trace-1")

	require.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.Equal(t, 1, uow.begins)
	assert.Equal(t, 1, uow.commits)
}

func TestCommandExecutor_ExecuteCommand_UnknownCommandSkipsTransaction(t *testing.T) {
	uow := newFakeUnitOfWork()
	executor := newTestExecutor(t, uow)

	outcome, err := executor.ExecuteCommand(context.Background(), "player-1", "rm-rf", "trace-1")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, catalog.ErrUnknownCommand)
	// No transaction was opened, nothing was persisted.
	assert.Equal(t, 0, uow.begins)
}

func TestCommandExecutor_ExecuteCommand_RetriesSerializationFailure(t *testing.T) {
	uow := newFakeUnitOfWork(serializationFailure())
	uow.allowHappyPath()
	executor := newTestExecutor(t, uow)

	outcome, err := executor.ExecuteCommand(context.Background(), "player-1", "phish", "trace-1")

	require.NoError(t, err)
	assert.NotNil(t, outcome)
	// First attempt conflicted at commit, second succeeded.
	assert.Equal(t, 2, uow.begins)
	assert.Equal(t, 2, uow.commits)
}

func TestCommandExecutor_ExecuteCommand_AbortsAfterMaxAttempts(t *testing.T) {
	uow := newFakeUnitOfWork(serializationFailure(), serializationFailure(), serializationFailure())
	uow.allowHappyPath()
	executor := newTestExecutor(t, uow)

	outcome, err := executor.ExecuteCommand(context.Background(), "player-1", "phish", "trace-1")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, ErrTransactionAborted)
	assert.Equal(t, 3, uow.begins)
}

func TestCommandExecutor_ExecuteCommand_DuplicateTraceRetriesAsReplay(t *testing.T) {
	// A concurrent request with the same trace id committed between our replay
	// lookup and our insert: the unique violation retries, and the second
	// attempt finds the stored trace.
	uow := newFakeUnitOfWork()
	executor := newTestExecutor(t, uow)

	stored := &entities.InvocationTrace{
		PlayerID:   "player-1",
		TraceID:    "trace-1",
		CommandID:  "phish",
		OK:         true,
		Reason:     entities.ReasonSuccess,
		Delta:      3,
		NewBalance: 13,
	}
	player := &entities.Player{ID: "player-1", Handle: "neo", Balance: 10, Level: 1}
	duplicate := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

	uow.invocationRepo.On("GetByTraceID", mock.Anything, "player-1", "trace-1").Return(nil, nil).Once()
	uow.invocationRepo.On("GetByTraceID", mock.Anything, "player-1", "trace-1").Return(stored, nil).Once()
	uow.playerRepo.On("GetByIDForUpdate", mock.Anything, "player-1").Return(player, nil)
	uow.unlockRepo.On("GetByPlayer", mock.Anything, "player-1").Return([]*entities.CommandUnlock{}, nil)
	uow.cooldownRepo.On("Get", mock.Anything, "player-1", "phish").Return(nil, nil)
	uow.playerRepo.On("UpdateProgress", mock.Anything, "player-1", mock.AnythingOfType("int64"), mock.AnythingOfType("int64"), mock.AnythingOfType("int")).Return(nil)
	uow.historyRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.BalanceHistory")).Return(nil)
	uow.cooldownRepo.On("Upsert", mock.Anything, "player-1", "phish", mock.AnythingOfType("time.Time")).Return(nil)
	uow.invocationRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.InvocationTrace")).Return(duplicate)
	uow.publisher.On("Publish", mock.Anything).Return(nil)

	outcome, err := executor.ExecuteCommand(context.Background(), "player-1", "phish", "trace-1")

	require.NoError(t, err)
	assert.True(t, outcome.Replayed)
	assert.Equal(t, int64(3), outcome.Delta)
}

func TestCommandExecutor_ExecuteCommand_NonRetryableErrorPropagates(t *testing.T) {
	uow := newFakeUnitOfWork()
	executor := newTestExecutor(t, uow)

	uow.invocationRepo.On("GetByTraceID", mock.Anything, "nobody", "trace-1").Return(nil, nil)
	uow.playerRepo.On("GetByIDForUpdate", mock.Anything, "nobody").Return(nil, nil)

	outcome, err := executor.ExecuteCommand(context.Background(), "nobody", "phish", "trace-1")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, services.ErrUnknownPlayer)
	// Policy errors do not burn retry attempts.
	assert.Equal(t, 1, uow.begins)
	assert.Equal(t, 0, uow.commits)
}

func TestCommandExecutor_EnsurePlayer_RetriesDuplicateCreate(t *testing.T) {
	// Two first-auth requests race past the existence check and both insert;
	// the loser's unique violation retries, and the second attempt finds the
	// row the winner committed.
	uow := newFakeUnitOfWork()
	executor := newTestExecutor(t, uow)

	existing := &entities.Player{ID: "player-1", Handle: "neo", Balance: 100, Level: 1}
	duplicate := &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "players_pkey"`}

	uow.playerRepo.On("GetByIDForUpdate", mock.Anything, "player-1").Return(nil, nil).Once()
	uow.playerRepo.On("Create", mock.Anything, "player-1", "neo", int64(0)).Return(nil, duplicate).Once()
	uow.playerRepo.On("GetByIDForUpdate", mock.Anything, "player-1").Return(existing, nil).Once()

	player, err := executor.EnsurePlayer(context.Background(), "player-1", "neo")

	require.NoError(t, err)
	assert.Same(t, existing, player)
	assert.Equal(t, 2, uow.begins)
	uow.playerRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestIsRetryableConflict(t *testing.T) {
	assert.True(t, isRetryableConflict(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryableConflict(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, isRetryableConflict(&pgconn.PgError{Code: "23505"}))

	assert.False(t, isRetryableConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isRetryableConflict(errors.New("plain error")))
	assert.False(t, isRetryableConflict(nil))
}
