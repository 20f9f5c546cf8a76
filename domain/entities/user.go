package entities

import "time"

// User represents a lottery player, keyed by their external chat ID
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	LanguageCode string    `db:"language_code"`
	CreatedAt    time.Time `db:"created_at"`
}
