package services

import (
	"context"
	"fmt"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// paymentService handles inbound ticket purchases against the gateway
type paymentService struct {
	roundRepo   interfaces.RoundRepository
	paymentRepo interfaces.PaymentRepository
	gateway     interfaces.PayoutGateway
	settings    Settings
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	roundRepo interfaces.RoundRepository,
	paymentRepo interfaces.PaymentRepository,
	gateway interfaces.PayoutGateway,
	settings Settings,
) interfaces.PaymentService {
	return &paymentService{
		roundRepo:   roundRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		settings:    settings,
	}
}

// CreateTicketPurchase creates a provider invoice and records a waiting
// payment bound to the currently active round. The round reference is fixed
// here; if the round closes before the payment confirms, the confirmation is
// rejected rather than credited elsewhere.
func (s *paymentService) CreateTicketPurchase(ctx context.Context, userID int64, payCurrency string, amountCents int64) (*interfaces.PurchaseResult, error) {
	currency, ok := s.settings.Currency(payCurrency)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, payCurrency)
	}

	if amountCents < currency.MinPaymentCents {
		return nil, fmt.Errorf("%w: minimum for %s is %d cents", ErrAmountTooSmall, currency.Code, currency.MinPaymentCents)
	}
	if minPurchase := s.settings.TicketPriceCents * s.settings.MinTicketsPerPayment; amountCents < minPurchase {
		return nil, fmt.Errorf("%w: minimum purchase is %d cents", ErrAmountTooSmall, minPurchase)
	}

	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	if round == nil {
		round, err = s.roundRepo.Create(ctx, s.settings.PrizeCents)
		if err != nil {
			return nil, fmt.Errorf("failed to create round: %w", err)
		}
		log.WithField("round_id", round.ID).Info("No active round, created a new one for purchase")
	}

	orderRef := fmt.Sprintf("%d:%d:%s", userID, round.ID, uuid.NewString())
	invoice, err := s.gateway.CreateInvoice(ctx, amountCents, currency.Code, orderRef)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	payment := &entities.Payment{
		ExternalID:  invoice.PaymentID,
		UserID:      userID,
		RoundID:     round.ID,
		AmountCents: amountCents,
		PayCurrency: currency.Code,
		Status:      entities.PaymentStatusWaiting,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	log.WithFields(log.Fields{
		"payment_id": payment.ExternalID,
		"user_id":    userID,
		"round_id":   round.ID,
		"currency":   currency.Code,
		"amount":     amountCents,
	}).Info("Ticket purchase invoice created")

	return &interfaces.PurchaseResult{Payment: payment, Invoice: invoice}, nil
}
