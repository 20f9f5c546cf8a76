package interfaces

import (
	"context"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/events"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their external chat ID
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetOrCreate retrieves a user or creates one on first interaction.
	// The stored username is refreshed when it changed.
	GetOrCreate(ctx context.Context, id int64, username string) (*entities.User, error)

	// UpdateLanguage sets the user's language preference
	UpdateLanguage(ctx context.Context, id int64, languageCode string) error
}

// WalletRepository defines the interface for payout wallet data access
type WalletRepository interface {
	// GetByUser returns all wallets registered by a user
	GetByUser(ctx context.Context, userID int64) ([]*entities.Wallet, error)

	// Upsert creates the wallet or overwrites the address for the
	// (user, currency) pair
	Upsert(ctx context.Context, wallet *entities.Wallet) error
}

// RoundRepository defines the interface for lottery round data access
type RoundRepository interface {
	// GetActive returns the currently active round, or nil if none exists
	GetActive(ctx context.Context) (*entities.Round, error)

	// GetActiveForUpdate returns the active round with a row lock held for
	// the remainder of the transaction
	GetActiveForUpdate(ctx context.Context) (*entities.Round, error)

	// Create opens a new active round with the given prize target
	Create(ctx context.Context, prizeCents int64) (*entities.Round, error)

	// Update persists round state changes
	Update(ctx context.Context, round *entities.Round) error
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// CreateBatch inserts all tickets in a single statement
	CreateBatch(ctx context.Context, tickets []*entities.Ticket) error

	// GetParticipants returns (user, ticket count) pairs for a round,
	// ordered ascending by user ID
	GetParticipants(ctx context.Context, roundID int64) ([]*entities.Participant, error)

	// CountByUserAndRound returns how many tickets a user holds in a round
	CountByUserAndRound(ctx context.Context, userID, roundID int64) (int64, error)
}

// PaymentRepository defines the interface for payment ledger data access
type PaymentRepository interface {
	// Create records a new provider payment in the waiting state
	Create(ctx context.Context, payment *entities.Payment) error

	// GetByExternalID retrieves a payment by the provider's payment ID,
	// or nil if unknown
	GetByExternalID(ctx context.Context, externalID string) (*entities.Payment, error)

	// GetByExternalIDForUpdate retrieves a payment with its row locked for
	// the remainder of the transaction, serializing concurrent status
	// transitions for the same payment
	GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entities.Payment, error)

	// UpdateStatus advances a payment's status
	UpdateStatus(ctx context.Context, externalID string, status entities.PaymentStatus) error

	// SumConfirmedCentsByRound returns the round's bank: the sum of all
	// confirmed payment amounts
	SumConfirmedCentsByRound(ctx context.Context, roundID int64) (int64, error)
}

// EventPublisher defines the interface for publishing notification events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding unit of
// work commits. Flush delivers buffered events; Discard drops them.
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context)
	Discard()
}
