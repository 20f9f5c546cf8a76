package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/events"
	"cryptoluck/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// settlementService implements the round settlement engine. All methods are
// expected to run inside a single unit of work owned by the caller; every
// storage mutation either commits with that unit of work or rolls back with
// it.
type settlementService struct {
	roundRepo   interfaces.RoundRepository
	ticketRepo  interfaces.TicketRepository
	paymentRepo interfaces.PaymentRepository
	userRepo    interfaces.UserRepository
	walletRepo  interfaces.WalletRepository
	oracle      interfaces.SeedOracle
	gateway     interfaces.PayoutGateway
	publisher   interfaces.EventPublisher
	settings    Settings
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	roundRepo interfaces.RoundRepository,
	ticketRepo interfaces.TicketRepository,
	paymentRepo interfaces.PaymentRepository,
	userRepo interfaces.UserRepository,
	walletRepo interfaces.WalletRepository,
	oracle interfaces.SeedOracle,
	gateway interfaces.PayoutGateway,
	publisher interfaces.EventPublisher,
	settings Settings,
) interfaces.SettlementService {
	return &settlementService{
		roundRepo:   roundRepo,
		ticketRepo:  ticketRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		oracle:      oracle,
		gateway:     gateway,
		publisher:   publisher,
		settings:    settings,
	}
}

// IngestPaymentUpdate applies one provider status update to the ledger.
// The payment row is read locked, so the finalized-status check and the
// ticket insert are serialized across concurrent deliveries: a duplicate
// confirmation blocks on the lock, then sees the finalized payment and is a
// no-op.
func (s *settlementService) IngestPaymentUpdate(ctx context.Context, externalID string, confirmedCents int64, status entities.PaymentStatus) (*interfaces.CreditResult, error) {
	payment, err := s.paymentRepo.GetByExternalIDForUpdate(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up payment %s: %w", externalID, err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, externalID)
	}

	if payment.IsFinalized() {
		log.WithFields(log.Fields{
			"payment_id": externalID,
			"status":     payment.Status,
		}).Info("Payment already finalized, ignoring duplicate update")
		return &interfaces.CreditResult{Payment: payment}, nil
	}

	if !entities.IsSuccessStatus(status) {
		// Non-success statuses only advance the payment record
		if err := s.paymentRepo.UpdateStatus(ctx, externalID, status); err != nil {
			return nil, fmt.Errorf("failed to update payment %s status: %w", externalID, err)
		}
		payment.Status = status
		return &interfaces.CreditResult{Payment: payment}, nil
	}

	// Money confirmed for a round that already closed must not be credited
	// anywhere else. Leave the payment untouched and surface it for manual
	// reconciliation.
	activeRound, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	if activeRound == nil || activeRound.ID != payment.RoundID {
		return nil, fmt.Errorf("%w: payment %s is for round %d", ErrRoundMismatch, externalID, payment.RoundID)
	}

	if err := s.paymentRepo.UpdateStatus(ctx, externalID, status); err != nil {
		return nil, fmt.Errorf("failed to update payment %s status: %w", externalID, err)
	}
	payment.Status = status

	ticketCount := confirmedCents / s.settings.TicketPriceCents
	if ticketCount <= 0 {
		log.WithFields(log.Fields{
			"payment_id":      externalID,
			"confirmed_cents": confirmedCents,
		}).Warn("Confirmed amount too small for a ticket, nothing credited")
		return &interfaces.CreditResult{Payment: payment}, nil
	}

	tickets := make([]*entities.Ticket, 0, ticketCount)
	for i := int64(0); i < ticketCount; i++ {
		tickets = append(tickets, &entities.Ticket{
			UserID:    payment.UserID,
			RoundID:   payment.RoundID,
			PaymentID: payment.ID,
		})
	}
	if err := s.ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets for payment %s: %w", externalID, err)
	}

	if err := s.publisher.Publish(events.TicketsCreditedEvent{
		UserID:      payment.UserID,
		RoundID:     payment.RoundID,
		TicketCount: ticketCount,
		AmountCents: confirmedCents,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish tickets credited event")
	}

	log.WithFields(log.Fields{
		"payment_id": externalID,
		"user_id":    payment.UserID,
		"round_id":   payment.RoundID,
		"tickets":    ticketCount,
	}).Info("Credited tickets for confirmed payment")

	return &interfaces.CreditResult{Payment: payment, TicketCount: ticketCount}, nil
}

// ConductDraw runs one draw attempt. The caller wraps it in a transaction;
// returning an error leaves the round exactly as it was before the attempt.
func (s *settlementService) ConductDraw(ctx context.Context) (*interfaces.DrawResult, error) {
	seed := s.obtainSeed(ctx)

	round, err := s.roundRepo.GetActiveForUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	if round == nil {
		// Self-heal: open a round so the next trigger has something to draw
		created, err := s.roundRepo.Create(ctx, s.settings.PrizeCents)
		if err != nil {
			return nil, fmt.Errorf("failed to create round: %w", err)
		}
		log.WithField("round_id", created.ID).Warn("No active round found during draw, created a new one")
		return &interfaces.DrawResult{SelfHealed: true, NextRound: created, Seed: seed}, nil
	}

	bank, err := s.paymentRepo.SumConfirmedCentsByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum round bank: %w", err)
	}

	threshold := s.settings.DrawThresholdCents(round.PrizeCents)
	if bank < threshold {
		// Rollover keeps the round open: tickets and bank carry into the
		// next draw attempt. No new round is created.
		if err := s.publisher.Publish(events.RoundRolledOverEvent{
			RoundID:        round.ID,
			CollectedCents: bank,
			TargetCents:    threshold,
		}); err != nil {
			log.WithError(err).Warn("Failed to publish rollover event")
		}
		log.WithFields(log.Fields{
			"round_id":  round.ID,
			"collected": bank,
			"target":    threshold,
		}).Info("Bank not met, rolling round over")
		return &interfaces.DrawResult{Round: round, RolledOver: true, CollectedCents: bank, Seed: seed}, nil
	}

	participants, err := s.ticketRepo.GetParticipants(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: round %d", ErrNoParticipants, round.ID)
	}

	winnerID, err := SelectWinner(participants, seed.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to select winner: %w", err)
	}

	winner, err := s.userRepo.GetByID(ctx, winnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winner: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("winner %d not found", winnerID)
	}

	log.WithFields(log.Fields{
		"round_id":  round.ID,
		"winner_id": winner.ID,
		"seed":      seed.Value,
		"oracle":    seed.FromOracle,
	}).Info("Winner selected")

	payout, err := s.SettleWinnerPayout(ctx, winner, round.PrizeCents, bank, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to settle winner payout: %w", err)
	}

	round.Finish(winnerID, time.Now().UTC())
	if err := s.roundRepo.Update(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to finish round: %w", err)
	}

	nextRound, err := s.roundRepo.Create(ctx, s.settings.PrizeCents)
	if err != nil {
		return nil, fmt.Errorf("failed to open next round: %w", err)
	}

	if err := s.publisher.Publish(events.WinnerAnnouncedEvent{
		RoundID:        round.ID,
		WinnerID:       winner.ID,
		PrizeCents:     round.PrizeCents,
		CollectedCents: bank,
		Seed:           seed.Value,
		SeedFromOracle: seed.FromOracle,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish winner announcement")
	}

	return &interfaces.DrawResult{
		Round:          round,
		Winner:         winner,
		CollectedCents: bank,
		Seed:           seed,
		NextRound:      nextRound,
		Payout:         payout,
	}, nil
}

// SettleWinnerPayout pays the prize through the gateway, or escalates to the
// manual path. Gateway failures never propagate as errors: a stuck round is
// worse than a delayed payout.
func (s *settlementService) SettleWinnerPayout(ctx context.Context, winner *entities.User, prizeCents, collectedCents, roundID int64) (*interfaces.PayoutOutcome, error) {
	wallets, err := s.walletRepo.GetByUser(ctx, winner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winner wallets: %w", err)
	}

	candidates := make([]events.CandidateWallet, 0, len(wallets))
	chosenIdx := -1
	for _, w := range wallets {
		currency, ok := s.settings.Currency(w.CurrencyCode)
		if !ok {
			continue
		}
		candidates = append(candidates, events.CandidateWallet{
			CurrencyCode: currency.Code,
			CurrencyName: currency.Name,
			Address:      w.Address,
		})
		if chosenIdx == -1 && w.MatchesCurrency(s.settings.PayoutCurrency) {
			chosenIdx = len(candidates) - 1
		}
	}
	if chosenIdx == -1 && len(candidates) > 0 {
		chosenIdx = 0
	}
	var chosen *events.CandidateWallet
	if chosenIdx >= 0 {
		chosen = &candidates[chosenIdx]
	}

	if !s.settings.AutoPayout {
		return s.escalateManualPayout(winner, prizeCents, roundID, candidates, "automatic payout disabled"), nil
	}
	if chosen == nil {
		return s.escalateManualPayout(winner, prizeCents, roundID, candidates, "no suitable payout wallet"), nil
	}

	receipt, err := s.gateway.CreatePayout(ctx, chosen.CurrencyCode, prizeCents, chosen.Address, s.settings.WinnerPayoutKey(roundID))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"round_id":  roundID,
			"winner_id": winner.ID,
		}).Error("Winner payout failed, falling back to manual flow")
		return s.escalateManualPayout(winner, prizeCents, roundID, candidates, "gateway payout failed"), nil
	}

	log.WithFields(log.Fields{
		"round_id":  roundID,
		"winner_id": winner.ID,
		"payout_id": receipt.ID,
		"currency":  chosen.CurrencyCode,
	}).Info("Winner prize paid out")

	if err := s.publisher.Publish(events.PayoutCompletedEvent{
		RoundID:      roundID,
		WinnerID:     winner.ID,
		PrizeCents:   prizeCents,
		CurrencyCode: chosen.CurrencyCode,
		Address:      chosen.Address,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish payout completed event")
	}

	s.distributeLeftover(ctx, collectedCents-prizeCents, roundID)

	return &interfaces.PayoutOutcome{
		CurrencyCode: chosen.CurrencyCode,
		Address:      chosen.Address,
	}, nil
}

func (s *settlementService) escalateManualPayout(winner *entities.User, prizeCents int64, roundID int64, candidates []events.CandidateWallet, reason string) *interfaces.PayoutOutcome {
	log.WithFields(log.Fields{
		"round_id":  roundID,
		"winner_id": winner.ID,
		"reason":    reason,
	}).Info("Escalating to manual payout")

	if err := s.publisher.Publish(events.ManualPayoutRequiredEvent{
		RoundID:    roundID,
		WinnerID:   winner.ID,
		PrizeCents: prizeCents,
		Wallets:    candidates,
		Reason:     reason,
	}); err != nil {
		log.WithError(err).Error("Failed to publish manual payout event")
	}

	return &interfaces.PayoutOutcome{Manual: true, Reason: reason}
}

// distributeLeftover splits the bank above the prize evenly across the
// configured beneficiary addresses. Each share carries its own deterministic
// idempotency key, so retrying the same round cannot double-pay any single
// beneficiary. Failures are logged and skipped.
func (s *settlementService) distributeLeftover(ctx context.Context, leftoverCents, roundID int64) {
	if leftoverCents <= 0 || len(s.settings.OwnerWallets) == 0 {
		return
	}

	share := leftoverCents / int64(len(s.settings.OwnerWallets))
	if share <= 0 {
		return
	}

	currency := s.settings.OwnerPayoutCurrency
	if currency == "" {
		currency = s.settings.PayoutCurrency
	}

	for i, address := range s.settings.OwnerWallets {
		key := s.settings.OwnerPayoutKey(roundID, i+1)
		if _, err := s.gateway.CreatePayout(ctx, currency, share, address, key); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"round_id": roundID,
				"address":  address,
				"share":    share,
			}).Error("Beneficiary payout failed")
		}
	}
}

// obtainSeed fetches the public seed, degrading to local randomness when the
// oracle is unavailable. An unavailable oracle never blocks the draw; the
// resulting draw is just not third-party reproducible.
func (s *settlementService) obtainSeed(ctx context.Context) interfaces.Seed {
	value, err := s.oracle.GetPublicSeed(ctx)
	if err != nil {
		log.WithError(err).Warn("Seed oracle unavailable, using fallback randomness for this draw")
		return interfaces.Seed{Value: fallbackSeed()}
	}
	return interfaces.Seed{Value: value, FromOracle: true}
}

func fallbackSeed() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable in practice
		panic(fmt.Sprintf("fallback seed generation failed: %v", err))
	}
	return hex.EncodeToString(buf)
}
