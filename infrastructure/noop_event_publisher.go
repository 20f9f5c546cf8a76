package infrastructure

import (
	"cryptoluck/domain/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher is an event publisher that discards events after logging
// them at debug level. Useful for tests and tooling commands.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a publisher that drops all events
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish logs and discards the event
func (p *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("event_type", event.Type()).Debug("Discarding event (noop publisher)")
	return nil
}
