package services

import (
	"context"
	"fmt"

	"netrunner/domain/catalog"
	"netrunner/domain/entities"
	"netrunner/domain/events"
	"netrunner/domain/interfaces"
	"netrunner/domain/utils"
)

// unlockService implements the lesson shop: one-time purchases that unlock
// commands. Like execution, it must run inside a unit of work.
type unlockService struct {
	catalog            *catalog.Catalog
	playerRepo         interfaces.PlayerRepository
	unlockRepo         interfaces.UnlockRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewUnlockService creates a new unlock service
func NewUnlockService(
	cat *catalog.Catalog,
	playerRepo interfaces.PlayerRepository,
	unlockRepo interfaces.UnlockRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.UnlockService {
	return &unlockService{
		catalog:            cat,
		playerRepo:         playerRepo,
		unlockRepo:         unlockRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

func (s *unlockService) PurchaseUnlock(ctx context.Context, playerID, commandID string) (*entities.CommandUnlock, error) {
	def, err := s.catalog.Get(commandID)
	if err != nil {
		return nil, err
	}
	if def.IsStarter() {
		return nil, fmt.Errorf("%w: %s", ErrStarterCommand, commandID)
	}

	player, err := s.playerRepo.GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	unlocks, err := s.unlockRepo.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocks: %w", err)
	}
	for _, u := range unlocks {
		if u.CommandID == commandID {
			// Idempotent: no second charge.
			return u, nil
		}
	}

	if !player.MeetsLevel(def.RequiredLevel) {
		return nil, fmt.Errorf("%w: need level %d, have %d", ErrLevelTooLow, def.RequiredLevel, player.Level)
	}
	if !player.CanAfford(def.UnlockCost) {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, player.Balance, def.UnlockCost)
	}

	newBalance := player.Balance - def.UnlockCost
	if err := s.playerRepo.UpdateProgress(ctx, playerID, newBalance, player.Experience, player.Level); err != nil {
		return nil, fmt.Errorf("failed to deduct unlock cost: %w", err)
	}

	history := &entities.BalanceHistory{
		PlayerID:        playerID,
		BalanceBefore:   player.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    -def.UnlockCost,
		TransactionType: entities.TransactionTypeUnlockPurchase,
		TransactionMetadata: map[string]any{
			"command_id": commandID,
		},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	unlock := &entities.CommandUnlock{
		PlayerID:  playerID,
		CommandID: commandID,
		Source:    entities.UnlockSourceLesson,
	}
	if err := s.unlockRepo.Create(ctx, unlock); err != nil {
		return nil, fmt.Errorf("failed to create unlock: %w", err)
	}

	if err := s.eventPublisher.Publish(events.CommandUnlockedEvent{
		PlayerID:  playerID,
		CommandID: commandID,
		Cost:      def.UnlockCost,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish unlock event: %w", err)
	}

	return unlock, nil
}
