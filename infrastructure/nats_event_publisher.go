package infrastructure

import (
	"encoding/json"
	"fmt"
	"time"

	"cryptoluck/domain/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	natsClientName     = "cryptoluck"
	natsReconnectDelay = 2 * time.Second
	natsMaxReconnects  = 10
)

// natsConn is the slice of *nats.Conn the publisher uses
type natsConn interface {
	Publish(subject string, data []byte) error
}

// eventEnvelope wraps a domain event for transport. Consumers route on the
// subject and the envelope's event_type, and decode the payload per type.
type eventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSEventPublisher delivers committed domain events to NATS. It is the
// production sink behind the per-transaction buffer: events reach it only
// after the unit of work commits.
type NATSEventPublisher struct {
	conn natsConn
}

// NewNATSEventPublisher creates a publisher over an established connection
func NewNATSEventPublisher(conn *nats.Conn) *NATSEventPublisher {
	return &NATSEventPublisher{conn: conn}
}

// ConnectNATS establishes a NATS connection with reconnect handling
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(natsClientName),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectDelay),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("url", url).Info("Connected to NATS")
	return nc, nil
}

// Publish sends one event to its subject wrapped in an envelope
func (p *NATSEventPublisher) Publish(event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := eventEnvelope{
		EventID:   uuid.New().String(),
		EventType: string(event.Type()),
		Timestamp: time.Now().UTC(),
		Source:    natsClientName,
		Payload:   payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := eventSubject(event.Type())
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"event_type": event.Type(),
		"event_id":   envelope.EventID,
		"subject":    subject,
	}).Debug("Published event to NATS")
	return nil
}

// eventSubject maps a domain event type to its NATS subject
func eventSubject(t events.EventType) string {
	switch t {
	case events.EventTypeTicketsCredited:
		return "rounds.tickets_credited"
	case events.EventTypeRoundRolledOver:
		return "rounds.rolled_over"
	case events.EventTypeWinnerAnnounced:
		return "rounds.winner_announced"
	case events.EventTypeManualPayoutRequired:
		return "payouts.manual_required"
	case events.EventTypePayoutCompleted:
		return "payouts.completed"
	default:
		return fmt.Sprintf("events.%s", t)
	}
}
