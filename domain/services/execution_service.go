package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"netrunner/domain/catalog"
	"netrunner/domain/entities"
	"netrunner/domain/events"
	"netrunner/domain/interfaces"
	"netrunner/domain/utils"
)

// executionService implements the command execution transaction. It must run
// inside a unit of work: the player row lock taken by GetByIDForUpdate is the
// serialization point for concurrent invocations by the same player.
type executionService struct {
	catalog            *catalog.Catalog
	playerRepo         interfaces.PlayerRepository
	cooldownRepo       interfaces.CooldownRepository
	invocationRepo     interfaces.InvocationRepository
	unlockRepo         interfaces.UnlockRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher

	now  func() time.Time
	roll func() float64
}

// NewExecutionService creates a new execution service
func NewExecutionService(
	cat *catalog.Catalog,
	playerRepo interfaces.PlayerRepository,
	cooldownRepo interfaces.CooldownRepository,
	invocationRepo interfaces.InvocationRepository,
	unlockRepo interfaces.UnlockRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.ExecutionService {
	return &executionService{
		catalog:            cat,
		playerRepo:         playerRepo,
		cooldownRepo:       cooldownRepo,
		invocationRepo:     invocationRepo,
		unlockRepo:         unlockRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
		now:                time.Now,
		roll:               rand.Float64,
	}
}

func (s *executionService) Execute(ctx context.Context, playerID, commandID, traceID string) (*entities.Outcome, error) {
	def, err := s.catalog.Get(commandID)
	if err != nil {
		return nil, err
	}

	// Idempotent replay: a retried trace id returns the stored outcome
	// without re-rolling or re-paying.
	existing, err := s.invocationRepo.GetByTraceID(ctx, playerID, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up trace: %w", err)
	}
	if existing != nil {
		return existing.Outcome(), nil
	}

	// Lock the player row for the rest of the transaction.
	player, err := s.playerRepo.GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	if player.IsBanned {
		return s.reject(ctx, playerID, &entities.Outcome{
			TraceID:    traceID,
			CommandID:  commandID,
			Reason:     entities.ReasonBanned,
			NewBalance: player.Balance,
		})
	}

	unlocks, err := s.unlockRepo.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocks: %w", err)
	}
	unlocked, err := s.catalog.IsUnlockedFor(player, entities.NewUnlockSet(unlocks), commandID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return s.reject(ctx, playerID, &entities.Outcome{
			TraceID:    traceID,
			CommandID:  commandID,
			Reason:     entities.ReasonLocked,
			NewBalance: player.Balance,
		})
	}

	now := s.now()
	cooldown, err := s.cooldownRepo.Get(ctx, playerID, commandID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cooldown: %w", err)
	}
	if cooldown != nil && !cooldown.EligibleAt(now) {
		return s.reject(ctx, playerID, &entities.Outcome{
			TraceID:        traceID,
			CommandID:      commandID,
			Reason:         entities.ReasonCooldown,
			NewBalance:     player.Balance,
			NextEligibleAt: cooldown.NextEligibleAt,
		})
	}

	// Server-side roll. The draw happens here so a client can neither bias
	// nor predict it.
	success := s.roll() < def.SuccessProbability
	var delta int64
	if success {
		delta = s.drawReward(def)
	} else {
		delta = def.FailPenalty
	}

	newBalance := player.ApplyDelta(delta)
	xpGain := def.ExperienceFor(success)
	newExperience := player.Experience + xpGain
	newLevel := entities.LevelForExperience(newExperience)

	if err := s.playerRepo.UpdateProgress(ctx, playerID, newBalance, newExperience, newLevel); err != nil {
		return nil, fmt.Errorf("failed to update player progress: %w", err)
	}

	if delta != 0 {
		transactionType := entities.TransactionTypeCommandReward
		if delta < 0 {
			transactionType = entities.TransactionTypeCommandPenalty
		}
		history := &entities.BalanceHistory{
			PlayerID:        playerID,
			BalanceBefore:   player.Balance,
			BalanceAfter:    newBalance,
			ChangeAmount:    delta,
			TransactionType: transactionType,
			TransactionMetadata: map[string]any{
				"command_id": commandID,
				"trace_id":   traceID,
				"success":    success,
			},
		}
		if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
			return nil, fmt.Errorf("failed to record balance change: %w", err)
		}
	}

	nextEligibleAt := now.Add(def.Cooldown)
	if err := s.cooldownRepo.Upsert(ctx, playerID, commandID, nextEligibleAt); err != nil {
		return nil, fmt.Errorf("failed to write cooldown: %w", err)
	}

	reason := entities.ReasonFailed
	if success {
		reason = entities.ReasonSuccess
	}
	outcome := &entities.Outcome{
		TraceID:        traceID,
		CommandID:      commandID,
		OK:             success,
		Reason:         reason,
		Delta:          delta,
		NewBalance:     newBalance,
		ExperienceGain: xpGain,
		NextEligibleAt: nextEligibleAt,
	}

	if err := s.invocationRepo.Record(ctx, entities.NewTrace(playerID, outcome)); err != nil {
		return nil, fmt.Errorf("failed to record invocation trace: %w", err)
	}

	if err := s.eventPublisher.Publish(events.CommandExecutedEvent{
		PlayerID:       playerID,
		CommandID:      commandID,
		TraceID:        traceID,
		OK:             success,
		Reason:         reason,
		Delta:          delta,
		ExperienceGain: xpGain,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish execution event: %w", err)
	}

	return outcome, nil
}

// reject persists a policy rejection trace so replays of the same trace id
// return the rejection deterministically, then returns it. No balance or
// cooldown state is touched.
func (s *executionService) reject(ctx context.Context, playerID string, outcome *entities.Outcome) (*entities.Outcome, error) {
	outcome.OK = false
	outcome.Delta = 0
	if err := s.invocationRepo.Record(ctx, entities.NewTrace(playerID, outcome)); err != nil {
		return nil, fmt.Errorf("failed to record rejection trace: %w", err)
	}
	return outcome, nil
}

// drawReward draws uniformly from the closed interval [min, max]
func (s *executionService) drawReward(def *entities.CommandDefinition) int64 {
	span := def.MaxReward - def.MinReward
	if span == 0 {
		return def.MinReward
	}
	return def.MinReward + int64(s.roll()*float64(span+1))
}
