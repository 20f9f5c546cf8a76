package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ErrInvalidSignature is returned when a callback's keyed hash does not match
// its body.
var ErrInvalidSignature = errors.New("callback signature mismatch")

// CallbackIngestor turns raw provider callback bodies into settlement calls.
// It owns signature verification and status normalization; transport (how the
// bytes arrive) is the caller's concern.
type CallbackIngestor struct {
	gateway      interfaces.PayoutGateway
	orchestrator *SettlementOrchestrator
}

// NewCallbackIngestor creates a new callback ingestor
func NewCallbackIngestor(gateway interfaces.PayoutGateway, orchestrator *SettlementOrchestrator) *CallbackIngestor {
	return &CallbackIngestor{
		gateway:      gateway,
		orchestrator: orchestrator,
	}
}

// paymentCallback is the provider's IPN payload, reduced to the fields the
// settlement engine needs.
type paymentCallback struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	PriceAmount   float64     `json:"price_amount"`
	OrderID       string      `json:"order_id"`
}

// Ingest verifies the signature over rawBody, parses the callback and applies
// it to the ledger. Unknown statuses are logged and skipped.
func (c *CallbackIngestor) Ingest(ctx context.Context, rawBody []byte, signature string) (*interfaces.CreditResult, error) {
	if !c.gateway.VerifySignature(rawBody, signature) {
		log.Warn("Rejected payment callback with invalid signature")
		return nil, ErrInvalidSignature
	}

	var callback paymentCallback
	if err := json.Unmarshal(rawBody, &callback); err != nil {
		return nil, fmt.Errorf("failed to parse callback body: %w", err)
	}

	externalID := callback.PaymentID.String()
	if externalID == "" {
		return nil, fmt.Errorf("callback missing payment_id")
	}

	status, ok := normalizeStatus(callback.PaymentStatus)
	if !ok {
		log.WithFields(log.Fields{
			"external_id": externalID,
			"status":      callback.PaymentStatus,
		}).Info("Ignoring callback with transient status")
		return nil, nil
	}

	confirmedCents := int64(math.Round(callback.PriceAmount * 100))

	log.WithFields(log.Fields{
		"external_id":     externalID,
		"status":          status,
		"confirmed_cents": confirmedCents,
		"order_id":        callback.OrderID,
	}).Info("Processing payment callback")

	return c.orchestrator.IngestPaymentUpdate(ctx, externalID, confirmedCents, status)
}

// normalizeStatus maps provider statuses onto the ledger's payment statuses.
// Transient statuses (waiting, confirming, sending) return ok=false; they
// carry no settlement consequence.
func normalizeStatus(providerStatus string) (entities.PaymentStatus, bool) {
	switch providerStatus {
	case "confirmed":
		return entities.PaymentStatusConfirmed, true
	case "finished":
		return entities.PaymentStatusFinished, true
	case "failed", "refunded", "expired":
		return entities.PaymentStatusFailed, true
	default:
		return "", false
	}
}
