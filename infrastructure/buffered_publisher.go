package infrastructure

import (
	"context"

	"cryptoluck/domain/events"
	"cryptoluck/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// BufferedEventPublisher holds events until its unit of work commits.
// Events published inside a transaction are delivered only by Flush after a
// successful commit, and dropped by Discard on rollback.
type BufferedEventPublisher struct {
	sink    interfaces.EventPublisher
	pending []events.Event
}

// NewBufferedEventPublisher creates a new transactional publisher delivering
// to the given sink
func NewBufferedEventPublisher(sink interfaces.EventPublisher) *BufferedEventPublisher {
	return &BufferedEventPublisher{
		sink:    sink,
		pending: make([]events.Event, 0),
	}
}

// Publish stores an event in the pending queue without delivering it
func (p *BufferedEventPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

// Flush delivers all pending events. Called after a successful commit;
// delivery failures are logged and do not block remaining events.
func (p *BufferedEventPublisher) Flush(ctx context.Context) {
	for _, event := range p.pending {
		if err := p.sink.Publish(event); err != nil {
			log.WithError(err).WithField("event_type", event.Type()).Error("Failed to publish event during flush")
		}
	}
	p.pending = p.pending[:0]
}

// Discard clears all pending events without delivering them
func (p *BufferedEventPublisher) Discard() {
	p.pending = p.pending[:0]
}
