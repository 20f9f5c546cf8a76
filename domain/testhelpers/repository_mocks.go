package testhelpers

import (
	"context"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/events"
	"cryptoluck/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetOrCreate(ctx context.Context, id int64, username string) (*entities.User, error) {
	args := m.Called(ctx, id, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLanguage(ctx context.Context, id int64, languageCode string) error {
	args := m.Called(ctx, id, languageCode)
	return args.Error(0)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Upsert(ctx context.Context, wallet *entities.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) GetActive(ctx context.Context) (*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetActiveForUpdate(ctx context.Context) (*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) Create(ctx context.Context, prizeCents int64) (*entities.Round, error) {
	args := m.Called(ctx, prizeCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) Update(ctx context.Context, round *entities.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepository) GetParticipants(ctx context.Context, roundID int64) ([]*entities.Participant, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Participant), args.Error(1)
}

func (m *MockTicketRepository) CountByUserAndRound(ctx context.Context, userID, roundID int64) (int64, error) {
	args := m.Called(ctx, userID, roundID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Payment, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entities.Payment, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, externalID string, status entities.PaymentStatus) error {
	args := m.Called(ctx, externalID, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumConfirmedCentsByRound(ctx context.Context, roundID int64) (int64, error) {
	args := m.Called(ctx, roundID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSeedOracle is a mock implementation of SeedOracle
type MockSeedOracle struct {
	mock.Mock
}

func (m *MockSeedOracle) GetPublicSeed(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockPayoutGateway is a mock implementation of PayoutGateway
type MockPayoutGateway struct {
	mock.Mock
}

func (m *MockPayoutGateway) CreateInvoice(ctx context.Context, amountCents int64, payCurrency, orderRef string) (*interfaces.Invoice, error) {
	args := m.Called(ctx, amountCents, payCurrency, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Invoice), args.Error(1)
}

func (m *MockPayoutGateway) CreatePayout(ctx context.Context, currency string, amountCents int64, address, idempotencyKey string) (*interfaces.PayoutReceipt, error) {
	args := m.Called(ctx, currency, amountCents, address, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.PayoutReceipt), args.Error(1)
}

func (m *MockPayoutGateway) VerifySignature(rawBody []byte, signature string) bool {
	args := m.Called(rawBody, signature)
	return args.Bool(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// RecordingEventPublisher captures published events for assertions
type RecordingEventPublisher struct {
	Events []events.Event
}

func (p *RecordingEventPublisher) Publish(event events.Event) error {
	p.Events = append(p.Events, event)
	return nil
}

// EventsOfType returns the captured events matching the given type
func (p *RecordingEventPublisher) EventsOfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.Events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}
