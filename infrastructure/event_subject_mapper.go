package infrastructure

import (
	"fmt"

	"netrunner/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS
// subject. All subjects live under the netrunner.events namespace.
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePlayerCreated:
		return "netrunner.events.player_created"
	case events.EventTypeBalanceChange:
		return "netrunner.events.balance_change"
	case events.EventTypeCommandExecuted:
		return "netrunner.events.command_executed"
	case events.EventTypeCommandUnlocked:
		return "netrunner.events.command_unlocked"
	default:
		return fmt.Sprintf("netrunner.events.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"netrunner.events.player_created",
		"netrunner.events.balance_change",
		"netrunner.events.command_executed",
		"netrunner.events.command_unlocked",
	}
}
