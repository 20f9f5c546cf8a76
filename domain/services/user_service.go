package services

import (
	"context"
	"fmt"
	"strings"

	"cryptoluck/domain/entities"
	"cryptoluck/domain/interfaces"
)

// userService implements user and wallet operations
type userService struct {
	userRepo   interfaces.UserRepository
	walletRepo interfaces.WalletRepository
	ticketRepo interfaces.TicketRepository
	roundRepo  interfaces.RoundRepository
	settings   Settings
}

// NewUserService creates a new user service
func NewUserService(
	userRepo interfaces.UserRepository,
	walletRepo interfaces.WalletRepository,
	ticketRepo interfaces.TicketRepository,
	roundRepo interfaces.RoundRepository,
	settings Settings,
) interfaces.UserService {
	return &userService{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		ticketRepo: ticketRepo,
		roundRepo:  roundRepo,
		settings:   settings,
	}
}

func (s *userService) GetOrCreateUser(ctx context.Context, id int64, username string) (*entities.User, error) {
	user, err := s.userRepo.GetOrCreate(ctx, id, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return user, nil
}

func (s *userService) SetLanguage(ctx context.Context, id int64, languageCode string) error {
	if err := s.userRepo.UpdateLanguage(ctx, id, languageCode); err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	return nil
}

// SetWallet validates and saves a payout address. An existing address for the
// same currency is overwritten in place.
func (s *userService) SetWallet(ctx context.Context, userID int64, currencyCode, address string) error {
	code := strings.ToLower(currencyCode)
	if _, ok := s.settings.Currency(code); !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currencyCode)
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return ErrInvalidAddress
	}
	if pattern, ok := s.settings.AddressPatterns[code]; ok && !pattern.MatchString(address) {
		return fmt.Errorf("%w: %s address does not match expected format", ErrInvalidAddress, code)
	}

	wallet := &entities.Wallet{
		UserID:       userID,
		CurrencyCode: code,
		Address:      address,
	}
	if err := s.walletRepo.Upsert(ctx, wallet); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func (s *userService) GetWallets(ctx context.Context, userID int64) ([]*entities.Wallet, error) {
	wallets, err := s.walletRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}
	return wallets, nil
}

// GetTicketCount returns the user's ticket count in the active round, or zero
// when no round is active.
func (s *userService) GetTicketCount(ctx context.Context, userID int64) (int64, error) {
	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get active round: %w", err)
	}
	if round == nil {
		return 0, nil
	}

	count, err := s.ticketRepo.CountByUserAndRound(ctx, userID, round.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}
