package repository

import (
	"context"
	"errors"
	"fmt"

	"cryptoluck/database"
	"cryptoluck/domain/entities"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements user data access
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository over the pool
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// NewUserRepositoryWithTx creates a new user repository bound to a transaction
func NewUserRepositoryWithTx(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by their external chat ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `
		SELECT id, username, language_code, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	err := r.q.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.LanguageCode, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetOrCreate retrieves a user or creates one on first interaction. An upsert
// keeps the stored username current and is safe under concurrent calls.
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64, username string) (*entities.User, error) {
	query := `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, language_code, created_at
	`

	var user entities.User
	err := r.q.QueryRow(ctx, query, id, username).Scan(&user.ID, &user.Username, &user.LanguageCode, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user %d: %w", id, err)
	}
	return &user, nil
}

// UpdateLanguage sets the user's language preference, creating the user when
// this is their first interaction
func (r *UserRepository) UpdateLanguage(ctx context.Context, id int64, languageCode string) error {
	query := `
		INSERT INTO users (id, language_code)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET language_code = EXCLUDED.language_code
	`

	if _, err := r.q.Exec(ctx, query, id, languageCode); err != nil {
		return fmt.Errorf("failed to update language for user %d: %w", id, err)
	}
	return nil
}
