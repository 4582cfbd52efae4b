package services

import (
	"context"
	"fmt"

	"netrunner/domain/entities"
	"netrunner/domain/events"
	"netrunner/domain/interfaces"
	"netrunner/domain/utils"
)

// profileService manages player account lifecycle. Accounts are created on
// first authentication and never deleted; misbehaving players are soft-banned.
type profileService struct {
	playerRepo         interfaces.PlayerRepository
	unlockRepo         interfaces.UnlockRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
	startingBalance    int64
}

// NewProfileService creates a new profile service
func NewProfileService(
	playerRepo interfaces.PlayerRepository,
	unlockRepo interfaces.UnlockRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
	startingBalance int64,
) interfaces.ProfileService {
	return &profileService{
		playerRepo:         playerRepo,
		unlockRepo:         unlockRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
		startingBalance:    startingBalance,
	}
}

func (s *profileService) EnsurePlayer(ctx context.Context, playerID, handle string) (*entities.Player, error) {
	existing, err := s.playerRepo.GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	player, err := s.playerRepo.Create(ctx, playerID, handle, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	if s.startingBalance > 0 {
		history := &entities.BalanceHistory{
			PlayerID:        playerID,
			BalanceBefore:   0,
			BalanceAfter:    s.startingBalance,
			ChangeAmount:    s.startingBalance,
			TransactionType: entities.TransactionTypeInitial,
			TransactionMetadata: map[string]any{
				"handle": handle,
			},
		}
		if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
			return nil, fmt.Errorf("failed to record initial balance: %w", err)
		}
	}

	if err := s.eventPublisher.Publish(events.PlayerCreatedEvent{
		PlayerID:       playerID,
		Handle:         handle,
		InitialBalance: s.startingBalance,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish player created event: %w", err)
	}

	return player, nil
}

func (s *profileService) GetProfile(ctx context.Context, playerID string) (*entities.Player, entities.UnlockSet, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	unlocks, err := s.unlockRepo.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get unlocks: %w", err)
	}

	return player, entities.NewUnlockSet(unlocks), nil
}

func (s *profileService) SetBanned(ctx context.Context, playerID string, banned bool, reason *string) error {
	player, err := s.playerRepo.GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if err := s.playerRepo.SetBanned(ctx, playerID, banned, reason); err != nil {
		return fmt.Errorf("failed to update ban state: %w", err)
	}
	return nil
}
