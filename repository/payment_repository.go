package repository

import (
	"context"
	"errors"
	"fmt"

	"cryptoluck/database"
	"cryptoluck/domain/entities"

	"github.com/jackc/pgx/v5"
)

// PaymentRepository implements payment ledger data access
type PaymentRepository struct {
	q Queryable
}

// NewPaymentRepository creates a new payment repository over the pool
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

// NewPaymentRepositoryWithTx creates a new payment repository bound to a transaction
func NewPaymentRepositoryWithTx(tx Queryable) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create records a new provider payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	query := `
		INSERT INTO payments (external_id, user_id, round_id, amount_cents, pay_currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		payment.ExternalID,
		payment.UserID,
		payment.RoundID,
		payment.AmountCents,
		payment.PayCurrency,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment %s: %w", payment.ExternalID, err)
	}
	return nil
}

// GetByExternalID retrieves a payment by the provider's payment ID
func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Payment, error) {
	query := `
		SELECT id, external_id, user_id, round_id, amount_cents, pay_currency, status, created_at
		FROM payments
		WHERE external_id = $1
	`
	return r.getOne(ctx, query, externalID)
}

// GetByExternalIDForUpdate retrieves a payment with its row locked until the
// transaction ends. A concurrent duplicate delivery blocks here and then sees
// the finalized status the first delivery committed.
func (r *PaymentRepository) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entities.Payment, error) {
	query := `
		SELECT id, external_id, user_id, round_id, amount_cents, pay_currency, status, created_at
		FROM payments
		WHERE external_id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, query, externalID)
}

func (r *PaymentRepository) getOne(ctx context.Context, query, externalID string) (*entities.Payment, error) {
	var payment entities.Payment
	err := r.q.QueryRow(ctx, query, externalID).Scan(
		&payment.ID,
		&payment.ExternalID,
		&payment.UserID,
		&payment.RoundID,
		&payment.AmountCents,
		&payment.PayCurrency,
		&payment.Status,
		&payment.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", externalID, err)
	}
	return &payment, nil
}

// UpdateStatus advances a payment's status
func (r *PaymentRepository) UpdateStatus(ctx context.Context, externalID string, status entities.PaymentStatus) error {
	query := `UPDATE payments SET status = $2 WHERE external_id = $1`

	tag, err := r.q.Exec(ctx, query, externalID, status)
	if err != nil {
		return fmt.Errorf("failed to update payment %s status: %w", externalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", externalID)
	}
	return nil
}

// SumConfirmedCentsByRound returns the round's bank from confirmed payments
func (r *PaymentRepository) SumConfirmedCentsByRound(ctx context.Context, roundID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM payments
		WHERE round_id = $1 AND status IN ($2, $3)
	`

	var total int64
	err := r.q.QueryRow(ctx, query, roundID, entities.PaymentStatusConfirmed, entities.PaymentStatusFinished).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum bank for round %d: %w", roundID, err)
	}
	return total, nil
}
