package application

import (
	"context"
	"fmt"
	"sync"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/interfaces"
	"cryptoluck/domain/services"

	log "github.com/sirupsen/logrus"
)

// SettlementOrchestrator runs settlement operations, each inside its own unit
// of work. Events published by the domain services are buffered per
// transaction and delivered only after commit.
type SettlementOrchestrator struct {
	uowFactory UnitOfWorkFactory
	oracle     interfaces.SeedOracle
	gateway    interfaces.PayoutGateway
	settings   services.Settings

	// drawMu serializes draws in-process. An overlapping trigger is
	// coalesced into the in-flight draw rather than queued.
	drawMu sync.Mutex
}

// NewSettlementOrchestrator creates a new settlement orchestrator
func NewSettlementOrchestrator(
	uowFactory UnitOfWorkFactory,
	oracle interfaces.SeedOracle,
	gateway interfaces.PayoutGateway,
	settings services.Settings,
) *SettlementOrchestrator {
	return &SettlementOrchestrator{
		uowFactory: uowFactory,
		oracle:     oracle,
		gateway:    gateway,
		settings:   settings,
	}
}

// IngestPaymentUpdate applies one provider payment status update inside a
// transaction. Duplicate confirmations commit as no-ops.
func (o *SettlementOrchestrator) IngestPaymentUpdate(ctx context.Context, externalID string, confirmedCents int64, status entities.PaymentStatus) (*interfaces.CreditResult, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := o.settlementService(uow).IngestPaymentUpdate(ctx, externalID, confirmedCents, status)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// RunWeeklyDraw runs one draw attempt. If a draw is already in flight the
// call returns immediately with a nil result; the concurrent trigger is
// satisfied by the draw already running.
func (o *SettlementOrchestrator) RunWeeklyDraw(ctx context.Context) (*interfaces.DrawResult, error) {
	if !o.drawMu.TryLock() {
		log.Info("Draw already in progress, coalescing trigger")
		return nil, nil
	}
	defer o.drawMu.Unlock()

	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := o.settlementService(uow).ConductDraw(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to conduct draw: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	fields := log.Fields{
		"rolled_over": result.RolledOver,
		"self_healed": result.SelfHealed,
	}
	// A self-healed attempt has no drawn round, only the newly opened one
	if result.Round != nil {
		fields["round_id"] = result.Round.ID
	} else if result.NextRound != nil {
		fields["round_id"] = result.NextRound.ID
	}
	if result.Winner != nil {
		fields["winner_id"] = result.Winner.ID
		fields["collected_cents"] = result.CollectedCents
	}
	log.WithFields(fields).Info("Draw completed")

	return result, nil
}

// CreateTicketPurchase creates a gateway invoice and a waiting payment for
// the active round.
func (o *SettlementOrchestrator) CreateTicketPurchase(ctx context.Context, userID int64, payCurrency string, amountCents int64) (*interfaces.PurchaseResult, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	paymentService := services.NewPaymentService(
		uow.RoundRepository(),
		uow.PaymentRepository(),
		o.gateway,
		o.settings,
	)

	result, err := paymentService.CreateTicketPurchase(ctx, userID, payCurrency, amountCents)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (o *SettlementOrchestrator) settlementService(uow UnitOfWork) interfaces.SettlementService {
	return services.NewSettlementService(
		uow.RoundRepository(),
		uow.TicketRepository(),
		uow.PaymentRepository(),
		uow.UserRepository(),
		uow.WalletRepository(),
		o.oracle,
		o.gateway,
		uow.EventBus(),
		o.settings,
	)
}
