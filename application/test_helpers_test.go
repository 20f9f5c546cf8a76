package application

import (
	"context"

	"cryptoluck/domain/interfaces"
	"cryptoluck/domain/testhelpers"
)

// fakeUnitOfWork backs orchestrator tests with repository mocks. Begin,
// Commit and Rollback only track state; there is no real transaction.
type fakeUnitOfWork struct {
	rounds    *testhelpers.MockRoundRepository
	tickets   *testhelpers.MockTicketRepository
	payments  *testhelpers.MockPaymentRepository
	users     *testhelpers.MockUserRepository
	wallets   *testhelpers.MockWalletRepository
	publisher *testhelpers.RecordingEventPublisher

	began      bool
	committed  bool
	rolledBack bool
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		rounds:    new(testhelpers.MockRoundRepository),
		tickets:   new(testhelpers.MockTicketRepository),
		payments:  new(testhelpers.MockPaymentRepository),
		users:     new(testhelpers.MockUserRepository),
		wallets:   new(testhelpers.MockWalletRepository),
		publisher: new(testhelpers.RecordingEventPublisher),
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.began = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.committed {
		u.rolledBack = true
	}
	return nil
}

func (u *fakeUnitOfWork) RoundRepository() interfaces.RoundRepository     { return u.rounds }
func (u *fakeUnitOfWork) TicketRepository() interfaces.TicketRepository   { return u.tickets }
func (u *fakeUnitOfWork) PaymentRepository() interfaces.PaymentRepository { return u.payments }
func (u *fakeUnitOfWork) UserRepository() interfaces.UserRepository       { return u.users }
func (u *fakeUnitOfWork) WalletRepository() interfaces.WalletRepository   { return u.wallets }
func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher             { return u.publisher }

// fakeUowFactory hands out a fresh fake unit of work per Create and keeps
// them for assertions.
type fakeUowFactory struct {
	created []*fakeUnitOfWork
	prepare func(*fakeUnitOfWork)
}

func (f *fakeUowFactory) Create() UnitOfWork {
	uow := newFakeUnitOfWork()
	if f.prepare != nil {
		f.prepare(uow)
	}
	f.created = append(f.created, uow)
	return uow
}
