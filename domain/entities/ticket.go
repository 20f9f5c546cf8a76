package entities

import "time"

// Ticket is one weighted entry for a user in a round. Tickets are created only
// when a confirmed payment is credited and are never mutated or deleted.
type Ticket struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	RoundID   int64     `db:"round_id"`
	PaymentID int64     `db:"payment_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Participant is a (user, ticket count) aggregate for a round. Participant
// lists handed to the winner selector are ordered ascending by UserID so the
// same seed always picks the same winner.
type Participant struct {
	UserID      int64
	TicketCount int64
}
