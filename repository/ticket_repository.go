package repository

import (
	"context"
	"fmt"

	"cryptoluck/database"
	"cryptoluck/domain/entities"
)

// TicketRepository implements ticket data access
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a new ticket repository over the pool
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// NewTicketRepositoryWithTx creates a new ticket repository bound to a transaction
func NewTicketRepositoryWithTx(tx Queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// CreateBatch inserts all tickets in a single statement
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	query := `INSERT INTO tickets (user_id, round_id, payment_id) VALUES `

	values := make([]interface{}, 0, len(tickets)*3)
	for i, ticket := range tickets {
		if i > 0 {
			query += ", "
		}
		offset := i * 3
		query += fmt.Sprintf("($%d, $%d, $%d)", offset+1, offset+2, offset+3)
		values = append(values, ticket.UserID, ticket.RoundID, ticket.PaymentID)
	}
	query += " RETURNING id, created_at"

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to batch create tickets: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&tickets[i].ID, &tickets[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan ticket result: %w", err)
		}
		i++
	}

	return rows.Err()
}

// GetParticipants returns (user, ticket count) pairs for a round. The fixed
// ascending order by user ID is what makes draws reproducible from the seed.
func (r *TicketRepository) GetParticipants(ctx context.Context, roundID int64) ([]*entities.Participant, error) {
	query := `
		SELECT user_id, COUNT(*) AS ticket_count
		FROM tickets
		WHERE round_id = $1
		GROUP BY user_id
		ORDER BY user_id ASC
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var participants []*entities.Participant
	for rows.Next() {
		var p entities.Participant
		if err := rows.Scan(&p.UserID, &p.TicketCount); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// CountByUserAndRound returns how many tickets a user holds in a round
func (r *TicketRepository) CountByUserAndRound(ctx context.Context, userID, roundID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE user_id = $1 AND round_id = $2`

	var count int64
	if err := r.q.QueryRow(ctx, query, userID, roundID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets for user %d in round %d: %w", userID, roundID, err)
	}
	return count, nil
}
