package repository

import (
	"context"
	"errors"
	"fmt"

	"cryptoluck/database"
	"cryptoluck/domain/entities"

	"github.com/jackc/pgx/v5"
)

// RoundRepository implements lottery round data access
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository over the pool
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// NewRoundRepositoryWithTx creates a new round repository bound to a transaction
func NewRoundRepositoryWithTx(tx Queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

const roundColumns = `id, is_active, prize_cents, status, winner_id, created_at, finished_at`

// GetActive returns the currently active round, or nil if none exists
func (r *RoundRepository) GetActive(ctx context.Context) (*entities.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE is_active`
	return r.getOne(ctx, query)
}

// GetActiveForUpdate returns the active round locked for the remainder of the
// transaction, serializing concurrent draw attempts at the database level
func (r *RoundRepository) GetActiveForUpdate(ctx context.Context) (*entities.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE is_active FOR UPDATE`
	return r.getOne(ctx, query)
}

func (r *RoundRepository) getOne(ctx context.Context, query string, args ...any) (*entities.Round, error) {
	var round entities.Round
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&round.ID,
		&round.IsActive,
		&round.PrizeCents,
		&round.Status,
		&round.WinnerID,
		&round.CreatedAt,
		&round.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return &round, nil
}

// Create opens a new active round with the given prize target. The partial
// unique index on is_active makes a second concurrent insert fail rather than
// leaving two active rounds.
func (r *RoundRepository) Create(ctx context.Context, prizeCents int64) (*entities.Round, error) {
	query := `
		INSERT INTO rounds (is_active, prize_cents, status)
		VALUES (TRUE, $1, $2)
		RETURNING id, created_at
	`

	round := &entities.Round{
		IsActive:   true,
		PrizeCents: prizeCents,
		Status:     entities.RoundStatusActive,
	}
	err := r.q.QueryRow(ctx, query, prizeCents, entities.RoundStatusActive).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}
	return round, nil
}

// Update persists round state changes
func (r *RoundRepository) Update(ctx context.Context, round *entities.Round) error {
	query := `
		UPDATE rounds
		SET is_active = $2, status = $3, winner_id = $4, finished_at = $5
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, round.ID, round.IsActive, round.Status, round.WinnerID, round.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to update round %d: %w", round.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d not found", round.ID)
	}
	return nil
}
