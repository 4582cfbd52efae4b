package infrastructure

import (
	"context"
	"errors"
	"testing"

	"netrunner/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *recordingPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestTransactionalEventPublisher_FlushPublishesBuffered(t *testing.T) {
	inner := &recordingPublisher{}
	publisher := NewTransactionalEventPublisher(inner)

	first := events.CommandExecutedEvent{PlayerID: "player-1", CommandID: "phish", TraceID: "t1", OK: true}
	second := events.BalanceChangeEvent{PlayerID: "player-1", OldBalance: 10, NewBalance: 13, ChangeAmount: 3}

	require.NoError(t, publisher.Publish(first))
	require.NoError(t, publisher.Publish(second))

	// Nothing reaches NATS until the transaction commits.
	assert.Len(t, inner.PublishedEvents, 0)

	require.NoError(t, publisher.Flush(context.Background()))

	require.Len(t, inner.PublishedEvents, 2)
	assert.Equal(t, first, inner.PublishedEvents[0])
	assert.Equal(t, second, inner.PublishedEvents[1])
}

func TestTransactionalEventPublisher_DiscardDropsBuffered(t *testing.T) {
	inner := &recordingPublisher{}
	publisher := NewTransactionalEventPublisher(inner)

	require.NoError(t, publisher.Publish(events.CommandExecutedEvent{PlayerID: "player-1", TraceID: "t1"}))

	publisher.Discard()

	// A flush after discard publishes nothing.
	require.NoError(t, publisher.Flush(context.Background()))
	assert.Len(t, inner.PublishedEvents, 0)
}

func TestTransactionalEventPublisher_FlushIsOneShot(t *testing.T) {
	inner := &recordingPublisher{}
	publisher := NewTransactionalEventPublisher(inner)

	require.NoError(t, publisher.Publish(events.CommandExecutedEvent{PlayerID: "player-1", TraceID: "t1"}))
	require.NoError(t, publisher.Flush(context.Background()))
	require.NoError(t, publisher.Flush(context.Background()))

	assert.Len(t, inner.PublishedEvents, 1)
}

func TestTransactionalEventPublisher_FlushReportsFirstError(t *testing.T) {
	inner := &recordingPublisher{PublishError: errors.New("nats unavailable")}
	publisher := NewTransactionalEventPublisher(inner)

	require.NoError(t, publisher.Publish(events.CommandExecutedEvent{PlayerID: "player-1", TraceID: "t1"}))

	err := publisher.Flush(context.Background())
	assert.Error(t, err)
}
