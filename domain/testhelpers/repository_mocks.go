package testhelpers

import (
	"context"
	"time"

	"netrunner/domain/entities"
	"netrunner/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockPlayerRepository is a mock implementation of PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, playerID string) (*entities.Player, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByIDForUpdate(ctx context.Context, playerID string) (*entities.Player, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) Create(ctx context.Context, playerID, handle string, initialBalance int64) (*entities.Player, error) {
	args := m.Called(ctx, playerID, handle, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) UpdateProgress(ctx context.Context, playerID string, balance, experience int64, level int) error {
	args := m.Called(ctx, playerID, balance, experience, level)
	return args.Error(0)
}

func (m *MockPlayerRepository) SetBanned(ctx context.Context, playerID string, banned bool, reason *string) error {
	args := m.Called(ctx, playerID, banned, reason)
	return args.Error(0)
}

// MockCooldownRepository is a mock implementation of CooldownRepository
type MockCooldownRepository struct {
	mock.Mock
}

func (m *MockCooldownRepository) Get(ctx context.Context, playerID, commandID string) (*entities.CooldownRecord, error) {
	args := m.Called(ctx, playerID, commandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CooldownRecord), args.Error(1)
}

func (m *MockCooldownRepository) Upsert(ctx context.Context, playerID, commandID string, nextEligibleAt time.Time) error {
	args := m.Called(ctx, playerID, commandID, nextEligibleAt)
	return args.Error(0)
}

// MockInvocationRepository is a mock implementation of InvocationRepository
type MockInvocationRepository struct {
	mock.Mock
}

func (m *MockInvocationRepository) GetByTraceID(ctx context.Context, playerID, traceID string) (*entities.InvocationTrace, error) {
	args := m.Called(ctx, playerID, traceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.InvocationTrace), args.Error(1)
}

func (m *MockInvocationRepository) Record(ctx context.Context, trace *entities.InvocationTrace) error {
	args := m.Called(ctx, trace)
	return args.Error(0)
}

func (m *MockInvocationRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.InvocationTrace, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.InvocationTrace), args.Error(1)
}

// MockUnlockRepository is a mock implementation of UnlockRepository
type MockUnlockRepository struct {
	mock.Mock
}

func (m *MockUnlockRepository) GetByPlayer(ctx context.Context, playerID string) ([]*entities.CommandUnlock, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CommandUnlock), args.Error(1)
}

func (m *MockUnlockRepository) Create(ctx context.Context, unlock *entities.CommandUnlock) error {
	args := m.Called(ctx, unlock)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
