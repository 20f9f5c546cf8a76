package entities

import "time"

// RoundStatus represents the lifecycle state of a lottery round
type RoundStatus string

const (
	RoundStatusActive     RoundStatus = "active"
	RoundStatusFinished   RoundStatus = "finished"
	RoundStatusRolledOver RoundStatus = "rolled_over"
)

// Round represents one lottery cycle. At most one round is active at a time;
// a round leaves the active state only through a successful draw.
type Round struct {
	ID         int64       `db:"id"`
	IsActive   bool        `db:"is_active"`
	PrizeCents int64       `db:"prize_cents"` // Captured from config at creation
	Status     RoundStatus `db:"status"`
	WinnerID   *int64      `db:"winner_id"` // NULL until the round is finished
	CreatedAt  time.Time   `db:"created_at"`
	FinishedAt *time.Time  `db:"finished_at"`
}

// IsDrawable reports whether the round can still be drawn.
func (r *Round) IsDrawable() bool {
	return r.IsActive && r.Status == RoundStatusActive
}

// Finish marks the round as won by the given user.
func (r *Round) Finish(winnerID int64, at time.Time) {
	r.IsActive = false
	r.Status = RoundStatusFinished
	r.WinnerID = &winnerID
	r.FinishedAt = &at
}
