package entities

import (
	"strings"
	"time"
)

// Wallet holds a user's payout address for a single currency.
// A user has at most one wallet per currency; re-registering overwrites the address.
type Wallet struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	CurrencyCode string    `db:"currency_code"` // stored lowercase
	Address      string    `db:"address"`
	CreatedAt    time.Time `db:"created_at"`
}

// MatchesCurrency reports whether the wallet is for the given currency code,
// ignoring case.
func (w *Wallet) MatchesCurrency(code string) bool {
	return strings.EqualFold(w.CurrencyCode, code)
}
