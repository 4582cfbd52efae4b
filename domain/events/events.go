package events

import "netrunner/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePlayerCreated   EventType = "player_created"
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeCommandExecuted EventType = "command_executed"
	EventTypeCommandUnlocked EventType = "command_unlocked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PlayerCreatedEvent represents a new player account creation
type PlayerCreatedEvent struct {
	PlayerID       string
	Handle         string
	InitialBalance int64
}

func (e PlayerCreatedEvent) Type() EventType {
	return EventTypePlayerCreated
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	PlayerID        string
	OldBalance      int64
	NewBalance      int64
	ChangeAmount    int64
	TransactionType entities.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// CommandExecutedEvent represents a command invocation that committed
type CommandExecutedEvent struct {
	PlayerID       string
	CommandID      string
	TraceID        string
	OK             bool
	Reason         entities.OutcomeReason
	Delta          int64
	ExperienceGain int64
}

func (e CommandExecutedEvent) Type() EventType {
	return EventTypeCommandExecuted
}

// CommandUnlockedEvent represents a command unlock purchase
type CommandUnlockedEvent struct {
	PlayerID  string
	CommandID string
	Cost      int64
}

func (e CommandUnlockedEvent) Type() EventType {
	return EventTypeCommandUnlocked
}
