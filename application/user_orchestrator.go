package application

import (
	"context"
	"fmt"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/interfaces"
	"cryptoluck/domain/services"
)

// UserOrchestrator runs user and wallet operations, each in its own unit of
// work.
type UserOrchestrator struct {
	uowFactory UnitOfWorkFactory
	settings   services.Settings
}

// NewUserOrchestrator creates a new user orchestrator
func NewUserOrchestrator(uowFactory UnitOfWorkFactory, settings services.Settings) *UserOrchestrator {
	return &UserOrchestrator{
		uowFactory: uowFactory,
		settings:   settings,
	}
}

// GetOrCreateUser retrieves an existing user or creates one
func (o *UserOrchestrator) GetOrCreateUser(ctx context.Context, id int64, username string) (*entities.User, error) {
	var user *entities.User
	err := o.inTransaction(ctx, func(uow UnitOfWork) error {
		var err error
		user, err = o.userService(uow).GetOrCreateUser(ctx, id, username)
		return err
	})
	return user, err
}

// SetLanguage persists the user's language preference
func (o *UserOrchestrator) SetLanguage(ctx context.Context, id int64, languageCode string) error {
	return o.inTransaction(ctx, func(uow UnitOfWork) error {
		return o.userService(uow).SetLanguage(ctx, id, languageCode)
	})
}

// SetWallet validates and saves a payout address for a currency
func (o *UserOrchestrator) SetWallet(ctx context.Context, userID int64, currencyCode, address string) error {
	return o.inTransaction(ctx, func(uow UnitOfWork) error {
		return o.userService(uow).SetWallet(ctx, userID, currencyCode, address)
	})
}

// GetWallets returns the user's registered payout wallets
func (o *UserOrchestrator) GetWallets(ctx context.Context, userID int64) ([]*entities.Wallet, error) {
	var wallets []*entities.Wallet
	err := o.inTransaction(ctx, func(uow UnitOfWork) error {
		var err error
		wallets, err = o.userService(uow).GetWallets(ctx, userID)
		return err
	})
	return wallets, err
}

// GetTicketCount returns the user's ticket count in the active round
func (o *UserOrchestrator) GetTicketCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := o.inTransaction(ctx, func(uow UnitOfWork) error {
		var err error
		count, err = o.userService(uow).GetTicketCount(ctx, userID)
		return err
	})
	return count, err
}

func (o *UserOrchestrator) inTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (o *UserOrchestrator) userService(uow UnitOfWork) interfaces.UserService {
	return services.NewUserService(
		uow.UserRepository(),
		uow.WalletRepository(),
		uow.TicketRepository(),
		uow.RoundRepository(),
		o.settings,
	)
}
