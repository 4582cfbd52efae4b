package infrastructure

import (
	"testing"

	"netrunner/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_MapEventToSubject(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.PlayerCreatedEvent{}, "netrunner.events.player_created"},
		{events.BalanceChangeEvent{}, "netrunner.events.balance_change"},
		{events.CommandExecutedEvent{}, "netrunner.events.command_executed"},
		{events.CommandUnlockedEvent{}, "netrunner.events.command_unlocked"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
	}
}

func TestEventSubjectMapper_AllSubjectsShareNamespace(t *testing.T) {
	mapper := NewEventSubjectMapper()

	subjects := mapper.GetAllSubjects()
	assert.Len(t, subjects, 4)
	for _, subject := range subjects {
		assert.Regexp(t, `^netrunner\.events\.`, subject)
	}
}
