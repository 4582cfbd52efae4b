package infrastructure

import (
	"context"

	"netrunner/domain/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher is an event publisher that does nothing. Used when NATS
// is not configured, so the rest of the system can publish unconditionally.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish logs the event at debug level and discards it
func (p *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("eventType", event.Type()).Debug("Event publishing disabled, dropping event")
	return nil
}

// Flush is a no-op; NoopEventPublisher never buffers anything
func (p *NoopEventPublisher) Flush(ctx context.Context) error {
	return nil
}

// Discard is a no-op
func (p *NoopEventPublisher) Discard() {}
