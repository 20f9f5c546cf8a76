package infrastructure

import (
	"fmt"

	"cryptoluck/domain/events"

	log "github.com/sirupsen/logrus"
)

// LoggingEventPublisher is an event sink that writes every committed event to
// the structured log. It stands in for an external announcement transport.
type LoggingEventPublisher struct{}

// NewLoggingEventPublisher creates a log-only event sink
func NewLoggingEventPublisher() *LoggingEventPublisher {
	return &LoggingEventPublisher{}
}

// Publish logs the event with its payload
func (p *LoggingEventPublisher) Publish(event events.Event) error {
	log.WithFields(log.Fields{
		"event_type": event.Type(),
		"event":      fmt.Sprintf("%+v", event),
	}).Info("Event published")
	return nil
}
