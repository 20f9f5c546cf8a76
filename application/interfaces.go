package application

import (
	"context"

	"cryptoluck/domain/interfaces"
)

// UnitOfWork defines one transactional boundary over the ledger store.
// Repositories obtained from it share the same transaction; events published
// through EventBus are delivered only after a successful commit.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// RoundRepository returns the round repository for this unit of work
	RoundRepository() interfaces.RoundRepository

	// TicketRepository returns the ticket repository for this unit of work
	TicketRepository() interfaces.TicketRepository

	// PaymentRepository returns the payment repository for this unit of work
	PaymentRepository() interfaces.PaymentRepository

	// UserRepository returns the user repository for this unit of work
	UserRepository() interfaces.UserRepository

	// WalletRepository returns the wallet repository for this unit of work
	WalletRepository() interfaces.WalletRepository

	// EventBus returns the transactional event publisher
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
