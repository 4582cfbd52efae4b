package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"netrunner/domain/events"
	"netrunner/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TransactionalEventPublisher buffers events during a transaction and only
// publishes them to NATS after the transaction commits. If the transaction
// rolls back, buffered events are discarded.
type TransactionalEventPublisher struct {
	inner   interfaces.EventPublisher
	mu      sync.Mutex
	pending []events.Event
}

// NewTransactionalEventPublisher creates a publisher that buffers events until
// Flush is called. One instance should be created per unit of work.
func NewTransactionalEventPublisher(inner interfaces.EventPublisher) *TransactionalEventPublisher {
	return &TransactionalEventPublisher{
		inner:   inner,
		pending: make([]events.Event, 0, 4),
	}
}

// Publish buffers the event for delivery after commit
func (p *TransactionalEventPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append(p.pending, event)

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"pendingCount": len(p.pending),
	}).Debug("Buffered event for post-commit publish")

	return nil
}

// Flush publishes all buffered events. Events that fail to publish are logged
// and skipped; the first error is returned after all events are attempted.
func (p *TransactionalEventPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var firstErr error
	for _, event := range pending {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		if err := p.inner.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish buffered event")
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to publish %s event: %w", event.Type(), err)
			}
		}
	}

	return firstErr
}

// Discard drops all buffered events without publishing them
func (p *TransactionalEventPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) > 0 {
		log.WithField("discardedCount", len(p.pending)).Debug("Discarded buffered events after rollback")
	}
	p.pending = nil
}
