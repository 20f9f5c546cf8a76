package entities

import "time"

// PaymentStatus represents the state of a provider payment
type PaymentStatus string

const (
	PaymentStatusWaiting   PaymentStatus = "waiting"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFinished  PaymentStatus = "finished"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment represents one payment-provider invoice. ExternalID is the
// provider's payment ID and is unique; the round reference is fixed at
// creation time to the round that was active then.
type Payment struct {
	ID          int64         `db:"id"`
	ExternalID  string        `db:"external_id"`
	UserID      int64         `db:"user_id"`
	RoundID     int64         `db:"round_id"`
	AmountCents int64         `db:"amount_cents"` // requested USD amount
	PayCurrency string        `db:"pay_currency"`
	Status      PaymentStatus `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
}

// IsFinalized reports whether the payment has already been credited.
// A finalized payment must never be credited again, no matter how many
// confirmations the provider delivers.
func (p *Payment) IsFinalized() bool {
	return p.Status == PaymentStatusConfirmed || p.Status == PaymentStatusFinished
}

// IsSuccessStatus reports whether a provider status string counts as a
// confirmed payment.
func IsSuccessStatus(status PaymentStatus) bool {
	return status == PaymentStatusConfirmed || status == PaymentStatusFinished
}
