package repository

import (
	"context"
	"fmt"

	"cryptoluck/database"
	"cryptoluck/domain/entities"
)

// WalletRepository implements payout wallet data access
type WalletRepository struct {
	q Queryable
}

// NewWalletRepository creates a new wallet repository over the pool
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// NewWalletRepositoryWithTx creates a new wallet repository bound to a transaction
func NewWalletRepositoryWithTx(tx Queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

// GetByUser returns all wallets registered by a user in registration order
func (r *WalletRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Wallet, error) {
	query := `
		SELECT id, user_id, currency_code, address, created_at
		FROM wallets
		WHERE user_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets for user %d: %w", userID, err)
	}
	defer rows.Close()

	var wallets []*entities.Wallet
	for rows.Next() {
		var wallet entities.Wallet
		if err := rows.Scan(&wallet.ID, &wallet.UserID, &wallet.CurrencyCode, &wallet.Address, &wallet.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, &wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}

	return wallets, nil
}

// Upsert creates the wallet or overwrites the address for the (user, currency)
// pair. The unique constraint on (user_id, currency_code) makes this a single
// statement.
func (r *WalletRepository) Upsert(ctx context.Context, wallet *entities.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, currency_code, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, currency_code) DO UPDATE SET address = EXCLUDED.address
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, wallet.UserID, wallet.CurrencyCode, wallet.Address).Scan(&wallet.ID, &wallet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert wallet for user %d: %w", wallet.UserID, err)
	}
	return nil
}
