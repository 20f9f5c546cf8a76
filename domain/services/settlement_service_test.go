package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/events"
	"cryptoluck/domain/interfaces"
	"cryptoluck/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	roundRepo   *testhelpers.MockRoundRepository
	ticketRepo  *testhelpers.MockTicketRepository
	paymentRepo *testhelpers.MockPaymentRepository
	userRepo    *testhelpers.MockUserRepository
	walletRepo  *testhelpers.MockWalletRepository
	oracle      *testhelpers.MockSeedOracle
	gateway     *testhelpers.MockPayoutGateway
	publisher   *testhelpers.RecordingEventPublisher
	settings    Settings
	service     interfaces.SettlementService
}

func newSettlementFixture(settings Settings) *settlementFixture {
	f := &settlementFixture{
		roundRepo:   new(testhelpers.MockRoundRepository),
		ticketRepo:  new(testhelpers.MockTicketRepository),
		paymentRepo: new(testhelpers.MockPaymentRepository),
		userRepo:    new(testhelpers.MockUserRepository),
		walletRepo:  new(testhelpers.MockWalletRepository),
		oracle:      new(testhelpers.MockSeedOracle),
		gateway:     new(testhelpers.MockPayoutGateway),
		publisher:   new(testhelpers.RecordingEventPublisher),
		settings:    settings,
	}
	f.service = NewSettlementService(
		f.roundRepo, f.ticketRepo, f.paymentRepo, f.userRepo, f.walletRepo,
		f.oracle, f.gateway, f.publisher, f.settings,
	)
	return f
}

func (f *settlementFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.roundRepo.AssertExpectations(t)
	f.ticketRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
	f.userRepo.AssertExpectations(t)
	f.walletRepo.AssertExpectations(t)
	f.oracle.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func testSettings() Settings {
	return Settings{
		TicketPriceCents:     50,
		PrizeCents:           1000,
		MinBankCents:         1000,
		MinTicketsPerPayment: 2,
		AutoPayout:           true,
		PayoutCurrency:       "trx",
		OwnerPayoutCurrency:  "trx",
		IdempotencyNamespace: "test",
		Currencies: map[string]SupportedCurrency{
			"trx":  {Code: "trx", Name: "TRON", MinPaymentCents: 50},
			"hbar": {Code: "hbar", Name: "Hedera", MinPaymentCents: 50},
		},
		AddressPatterns: map[string]*regexp.Regexp{
			"trx": regexp.MustCompile(`^T[A-Za-z1-9]{33}$`),
		},
	}
}

const testSeed = "000000000000000000024b1c9a8e7d6c5b4a3928170f4b1c9a8e7d6c5b4a3928"

func TestIngestPaymentUpdate_DuplicateConfirmationIsNoOp(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	payment := &entities.Payment{
		ID: 1, ExternalID: "np-1", UserID: 10, RoundID: 5,
		Status: entities.PaymentStatusConfirmed,
	}
	f.paymentRepo.On("GetByExternalIDForUpdate", ctx, "np-1").Return(payment, nil)

	result, err := f.service.IngestPaymentUpdate(ctx, "np-1", 500, entities.PaymentStatusConfirmed)
	require.NoError(t, err)

	assert.Zero(t, result.TicketCount)
	assert.Empty(t, f.publisher.Events)
	f.paymentRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.ticketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestIngestPaymentUpdate_UnknownPayment(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	f.paymentRepo.On("GetByExternalIDForUpdate", ctx, "missing").Return(nil, nil)

	_, err := f.service.IngestPaymentUpdate(ctx, "missing", 500, entities.PaymentStatusConfirmed)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	f.assertExpectations(t)
}

func TestIngestPaymentUpdate_FailedStatusOnlyAdvancesPayment(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	payment := &entities.Payment{
		ID: 1, ExternalID: "np-2", UserID: 10, RoundID: 5,
		Status: entities.PaymentStatusWaiting,
	}
	f.paymentRepo.On("GetByExternalIDForUpdate", ctx, "np-2").Return(payment, nil)
	f.paymentRepo.On("UpdateStatus", ctx, "np-2", entities.PaymentStatusFailed).Return(nil)

	result, err := f.service.IngestPaymentUpdate(ctx, "np-2", 0, entities.PaymentStatusFailed)
	require.NoError(t, err)

	assert.Zero(t, result.TicketCount)
	assert.Equal(t, entities.PaymentStatusFailed, result.Payment.Status)
	f.ticketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.Events)
	f.assertExpectations(t)
}

func TestIngestPaymentUpdate_RoundMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		activeRound *entities.Round
	}{
		{name: "no active round", activeRound: nil},
		{name: "different active round", activeRound: &entities.Round{ID: 6, IsActive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newSettlementFixture(testSettings())
			ctx := context.Background()

			payment := &entities.Payment{
				ID: 1, ExternalID: "np-3", UserID: 10, RoundID: 5,
				Status: entities.PaymentStatusWaiting,
			}
			f.paymentRepo.On("GetByExternalIDForUpdate", ctx, "np-3").Return(payment, nil)
			f.roundRepo.On("GetActive", ctx).Return(tt.activeRound, nil)

			_, err := f.service.IngestPaymentUpdate(ctx, "np-3", 500, entities.PaymentStatusConfirmed)
			assert.ErrorIs(t, err, ErrRoundMismatch)

			// The payment record stays untouched for manual reconciliation
			f.paymentRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			f.ticketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestIngestPaymentUpdate_AmountTooSmallCreditsNothing(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	payment := &entities.Payment{
		ID: 1, ExternalID: "np-4", UserID: 10, RoundID: 5,
		Status: entities.PaymentStatusWaiting,
	}
	f.paymentRepo.On("GetByExternalIDForUpdate", ctx, "np-4").Return(payment, nil)
	f.roundRepo.On("GetActive", ctx).Return(&entities.Round{ID: 5, IsActive: true}, nil)
	f.paymentRepo.On("UpdateStatus", ctx, "np-4", entities.PaymentStatusConfirmed).Return(nil)

	// 49 cents confirmed against a 50 cent ticket price
	result, err := f.service.IngestPaymentUpdate(ctx, "np-4", 49, entities.PaymentStatusConfirmed)
	require.NoError(t, err)

	assert.Zero(t, result.TicketCount)
	f.ticketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.Events)
	f.assertExpectations(t)
}

func TestIngestPaymentUpdate_CreditsFloorOfAmount(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	payment := &entities.Payment{
		ID: 7, ExternalID: "np-5", UserID: 10, RoundID: 5,
		Status: entities.PaymentStatusWaiting,
	}
	f.paymentRepo.On("GetByExternalIDForUpdate", ctx, "np-5").Return(payment, nil)
	f.roundRepo.On("GetActive", ctx).Return(&entities.Round{ID: 5, IsActive: true}, nil)
	f.paymentRepo.On("UpdateStatus", ctx, "np-5", entities.PaymentStatusConfirmed).Return(nil)
	f.ticketRepo.On("CreateBatch", ctx, mock.MatchedBy(func(tickets []*entities.Ticket) bool {
		if len(tickets) != 5 {
			return false
		}
		for _, ticket := range tickets {
			if ticket.UserID != 10 || ticket.RoundID != 5 || ticket.PaymentID != 7 {
				return false
			}
		}
		return true
	})).Return(nil)

	// 274 cents buys 5 tickets at 50 cents; the remainder is kept
	result, err := f.service.IngestPaymentUpdate(ctx, "np-5", 274, entities.PaymentStatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.TicketCount)

	credited := f.publisher.EventsOfType(events.EventTypeTicketsCredited)
	require.Len(t, credited, 1)
	event := credited[0].(events.TicketsCreditedEvent)
	assert.Equal(t, int64(10), event.UserID)
	assert.Equal(t, int64(5), event.TicketCount)
	assert.Equal(t, int64(274), event.AmountCents)
	f.assertExpectations(t)
}

func TestConductDraw_SelfHealsWhenNoActiveRound(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	f.oracle.On("GetPublicSeed", ctx).Return(testSeed, nil)
	f.roundRepo.On("GetActiveForUpdate", ctx).Return(nil, nil)
	newRound := &entities.Round{ID: 1, IsActive: true, PrizeCents: 1000}
	f.roundRepo.On("Create", ctx, int64(1000)).Return(newRound, nil)

	result, err := f.service.ConductDraw(ctx)
	require.NoError(t, err)

	assert.True(t, result.SelfHealed)
	assert.Equal(t, newRound, result.NextRound)
	assert.Nil(t, result.Winner)
	f.assertExpectations(t)
}

func TestConductDraw_RollsOverBelowThreshold(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	round := &entities.Round{ID: 3, IsActive: true, PrizeCents: 1000, Status: entities.RoundStatusActive}
	f.oracle.On("GetPublicSeed", ctx).Return(testSeed, nil)
	f.roundRepo.On("GetActiveForUpdate", ctx).Return(round, nil)
	f.paymentRepo.On("SumConfirmedCentsByRound", ctx, int64(3)).Return(int64(999), nil)

	result, err := f.service.ConductDraw(ctx)
	require.NoError(t, err)

	assert.True(t, result.RolledOver)
	assert.Equal(t, int64(999), result.CollectedCents)

	// The round is left untouched and no new round opens
	assert.True(t, round.IsActive)
	f.roundRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.roundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	rolled := f.publisher.EventsOfType(events.EventTypeRoundRolledOver)
	require.Len(t, rolled, 1)
	event := rolled[0].(events.RoundRolledOverEvent)
	assert.Equal(t, int64(3), event.RoundID)
	assert.Equal(t, int64(999), event.CollectedCents)
	assert.Equal(t, int64(1000), event.TargetCents)
	f.assertExpectations(t)
}

func TestConductDraw_ThresholdIsInclusive(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	round := &entities.Round{ID: 3, IsActive: true, PrizeCents: 1000, Status: entities.RoundStatusActive}
	winner := &entities.User{ID: 10, Username: "alice"}

	f.oracle.On("GetPublicSeed", ctx).Return(testSeed, nil)
	f.roundRepo.On("GetActiveForUpdate", ctx).Return(round, nil)
	// Bank exactly at the threshold proceeds to a draw
	f.paymentRepo.On("SumConfirmedCentsByRound", ctx, int64(3)).Return(int64(1000), nil)
	f.ticketRepo.On("GetParticipants", ctx, int64(3)).Return([]*entities.Participant{
		{UserID: 10, TicketCount: 20},
	}, nil)
	f.userRepo.On("GetByID", ctx, int64(10)).Return(winner, nil)
	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "trx", Address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"},
	}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(1000), "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", "test:3:winner").
		Return(&interfaces.PayoutReceipt{ID: "p-1", Status: "creating"}, nil)
	f.roundRepo.On("Update", ctx, round).Return(nil)
	f.roundRepo.On("Create", ctx, int64(1000)).Return(&entities.Round{ID: 4, IsActive: true}, nil)

	result, err := f.service.ConductDraw(ctx)
	require.NoError(t, err)

	assert.False(t, result.RolledOver)
	require.NotNil(t, result.Winner)
	assert.Equal(t, int64(10), result.Winner.ID)
	assert.False(t, round.IsActive)
	assert.Equal(t, entities.RoundStatusFinished, round.Status)
	require.NotNil(t, round.WinnerID)
	assert.Equal(t, int64(10), *round.WinnerID)

	announced := f.publisher.EventsOfType(events.EventTypeWinnerAnnounced)
	require.Len(t, announced, 1)
	event := announced[0].(events.WinnerAnnouncedEvent)
	assert.Equal(t, testSeed, event.Seed)
	assert.True(t, event.SeedFromOracle)
	f.assertExpectations(t)
}

func TestConductDraw_NoParticipants(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	round := &entities.Round{ID: 3, IsActive: true, PrizeCents: 1000, Status: entities.RoundStatusActive}
	f.oracle.On("GetPublicSeed", ctx).Return(testSeed, nil)
	f.roundRepo.On("GetActiveForUpdate", ctx).Return(round, nil)
	f.paymentRepo.On("SumConfirmedCentsByRound", ctx, int64(3)).Return(int64(1500), nil)
	f.ticketRepo.On("GetParticipants", ctx, int64(3)).Return([]*entities.Participant{}, nil)

	_, err := f.service.ConductDraw(ctx)
	assert.ErrorIs(t, err, ErrNoParticipants)
	assert.True(t, round.IsActive)
	f.assertExpectations(t)
}

func TestConductDraw_OracleUnavailableUsesFallbackSeed(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	round := &entities.Round{ID: 3, IsActive: true, PrizeCents: 1000, Status: entities.RoundStatusActive}
	winner := &entities.User{ID: 10, Username: "alice"}

	f.oracle.On("GetPublicSeed", ctx).Return("", errors.New("all sources down"))
	f.roundRepo.On("GetActiveForUpdate", ctx).Return(round, nil)
	f.paymentRepo.On("SumConfirmedCentsByRound", ctx, int64(3)).Return(int64(1500), nil)
	f.ticketRepo.On("GetParticipants", ctx, int64(3)).Return([]*entities.Participant{
		{UserID: 10, TicketCount: 30},
	}, nil)
	f.userRepo.On("GetByID", ctx, int64(10)).Return(winner, nil)
	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{}, nil)
	f.roundRepo.On("Update", ctx, round).Return(nil)
	f.roundRepo.On("Create", ctx, int64(1000)).Return(&entities.Round{ID: 4, IsActive: true}, nil)

	result, err := f.service.ConductDraw(ctx)
	require.NoError(t, err)

	assert.False(t, result.Seed.FromOracle)
	assert.Len(t, result.Seed.Value, 64, "fallback seed is 32 random bytes hex encoded")

	announced := f.publisher.EventsOfType(events.EventTypeWinnerAnnounced)
	require.Len(t, announced, 1)
	assert.False(t, announced[0].(events.WinnerAnnouncedEvent).SeedFromOracle)
	f.assertExpectations(t)
}

func TestConductDraw_GatewayFailureStillFinishesRound(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	round := &entities.Round{ID: 3, IsActive: true, PrizeCents: 1000, Status: entities.RoundStatusActive}
	winner := &entities.User{ID: 10, Username: "alice"}

	f.oracle.On("GetPublicSeed", ctx).Return(testSeed, nil)
	f.roundRepo.On("GetActiveForUpdate", ctx).Return(round, nil)
	f.paymentRepo.On("SumConfirmedCentsByRound", ctx, int64(3)).Return(int64(1500), nil)
	f.ticketRepo.On("GetParticipants", ctx, int64(3)).Return([]*entities.Participant{
		{UserID: 10, TicketCount: 30},
	}, nil)
	f.userRepo.On("GetByID", ctx, int64(10)).Return(winner, nil)
	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "trx", Address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"},
	}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(1000), "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", "test:3:winner").
		Return(nil, errors.New("provider 500"))
	f.roundRepo.On("Update", ctx, round).Return(nil)
	f.roundRepo.On("Create", ctx, int64(1000)).Return(&entities.Round{ID: 4, IsActive: true}, nil)

	result, err := f.service.ConductDraw(ctx)
	require.NoError(t, err)

	require.NotNil(t, result.Payout)
	assert.True(t, result.Payout.Manual)
	assert.False(t, round.IsActive, "draw completes even when the payout fails")

	manual := f.publisher.EventsOfType(events.EventTypeManualPayoutRequired)
	require.Len(t, manual, 1)
	event := manual[0].(events.ManualPayoutRequiredEvent)
	assert.Equal(t, int64(10), event.WinnerID)
	assert.Equal(t, "gateway payout failed", event.Reason)
	require.Len(t, event.Wallets, 1)
	f.assertExpectations(t)
}

func TestSettleWinnerPayout_ManualWhenAutoPayoutDisabled(t *testing.T) {
	t.Parallel()
	settings := testSettings()
	settings.AutoPayout = false
	f := newSettlementFixture(settings)
	ctx := context.Background()

	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "trx", Address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"},
	}, nil)

	outcome, err := f.service.SettleWinnerPayout(ctx, &entities.User{ID: 10}, 1000, 1500, 3)
	require.NoError(t, err)

	assert.True(t, outcome.Manual)
	f.gateway.AssertNotCalled(t, "CreatePayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	manual := f.publisher.EventsOfType(events.EventTypeManualPayoutRequired)
	require.Len(t, manual, 1)
	// The operator still gets the registered wallets to pay by hand
	assert.Len(t, manual[0].(events.ManualPayoutRequiredEvent).Wallets, 1)
	f.assertExpectations(t)
}

func TestSettleWinnerPayout_ManualWhenNoUsableWallet(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	// Only a wallet in an unsupported currency
	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "doge", Address: "DDogeAddress"},
	}, nil)

	outcome, err := f.service.SettleWinnerPayout(ctx, &entities.User{ID: 10}, 1000, 1500, 3)
	require.NoError(t, err)

	assert.True(t, outcome.Manual)
	assert.Equal(t, "no suitable payout wallet", outcome.Reason)
	f.assertExpectations(t)
}

func TestSettleWinnerPayout_PrefersConfiguredCurrency(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "hbar", Address: "0.0.12345"},
		{UserID: 10, CurrencyCode: "trx", Address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"},
	}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(1000), "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", "test:3:winner").
		Return(&interfaces.PayoutReceipt{ID: "p-9"}, nil)

	outcome, err := f.service.SettleWinnerPayout(ctx, &entities.User{ID: 10}, 1000, 1000, 3)
	require.NoError(t, err)

	assert.False(t, outcome.Manual)
	assert.Equal(t, "trx", outcome.CurrencyCode)

	completed := f.publisher.EventsOfType(events.EventTypePayoutCompleted)
	require.Len(t, completed, 1)
	f.assertExpectations(t)
}

func TestSettleWinnerPayout_FallsBackToFirstSupportedWallet(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(testSettings())
	ctx := context.Background()

	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "hbar", Address: "0.0.12345"},
	}, nil)
	f.gateway.On("CreatePayout", ctx, "hbar", int64(1000), "0.0.12345", "test:3:winner").
		Return(&interfaces.PayoutReceipt{ID: "p-10"}, nil)

	outcome, err := f.service.SettleWinnerPayout(ctx, &entities.User{ID: 10}, 1000, 1000, 3)
	require.NoError(t, err)

	assert.Equal(t, "hbar", outcome.CurrencyCode)
	f.assertExpectations(t)
}

func TestSettleWinnerPayout_DistributesLeftoverToOwners(t *testing.T) {
	t.Parallel()
	settings := testSettings()
	settings.OwnerWallets = []string{"TOwnerOne111111111111111111111111x", "TOwnerTwo222222222222222222222222x"}
	f := newSettlementFixture(settings)
	ctx := context.Background()

	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "trx", Address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"},
	}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(1000), "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", "test:3:winner").
		Return(&interfaces.PayoutReceipt{ID: "p-11"}, nil)
	// 1501 collected - 1000 prize = 501 leftover; 250 each, 1 cent stays
	f.gateway.On("CreatePayout", ctx, "trx", int64(250), "TOwnerOne111111111111111111111111x", "test:3:owner:1").
		Return(&interfaces.PayoutReceipt{ID: "p-12"}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(250), "TOwnerTwo222222222222222222222222x", "test:3:owner:2").
		Return(&interfaces.PayoutReceipt{ID: "p-13"}, nil)

	outcome, err := f.service.SettleWinnerPayout(ctx, &entities.User{ID: 10}, 1000, 1501, 3)
	require.NoError(t, err)

	assert.False(t, outcome.Manual)
	f.assertExpectations(t)
}

func TestSettleWinnerPayout_OwnerPayoutFailureDoesNotError(t *testing.T) {
	t.Parallel()
	settings := testSettings()
	settings.OwnerWallets = []string{"TOwnerOne111111111111111111111111x"}
	f := newSettlementFixture(settings)
	ctx := context.Background()

	f.walletRepo.On("GetByUser", ctx, int64(10)).Return([]*entities.Wallet{
		{UserID: 10, CurrencyCode: "trx", Address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"},
	}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(1000), "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", "test:3:winner").
		Return(&interfaces.PayoutReceipt{ID: "p-14"}, nil)
	f.gateway.On("CreatePayout", ctx, "trx", int64(500), "TOwnerOne111111111111111111111111x", "test:3:owner:1").
		Return(nil, errors.New("provider down"))

	outcome, err := f.service.SettleWinnerPayout(ctx, &entities.User{ID: 10}, 1000, 1500, 3)
	require.NoError(t, err)
	assert.False(t, outcome.Manual)
	f.assertExpectations(t)
}

func TestSettings_IdempotencyKeys(t *testing.T) {
	t.Parallel()
	settings := testSettings()

	// Keys depend only on the round, so retried settlements reuse them
	assert.Equal(t, "test:42:winner", settings.WinnerPayoutKey(42))
	assert.Equal(t, settings.WinnerPayoutKey(42), settings.WinnerPayoutKey(42))
	assert.Equal(t, "test:42:owner:1", settings.OwnerPayoutKey(42, 1))
	assert.Equal(t, "test:42:owner:2", settings.OwnerPayoutKey(42, 2))
	assert.NotEqual(t, settings.WinnerPayoutKey(42), settings.WinnerPayoutKey(43))
}

func TestSettings_DrawThresholdCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		prizeCents int64
		minBank    int64
		want       int64
	}{
		{name: "min bank dominates", prizeCents: 500, minBank: 1000, want: 1000},
		{name: "prize dominates", prizeCents: 2000, minBank: 1000, want: 2000},
		{name: "equal", prizeCents: 1000, minBank: 1000, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := Settings{MinBankCents: tt.minBank}
			assert.Equal(t, tt.want, settings.DrawThresholdCents(tt.prizeCents))
		})
	}
}
