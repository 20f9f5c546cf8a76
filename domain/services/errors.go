package services

import "errors"

var (
	// ErrNoTickets is returned when a winner is requested from an empty
	// participant set
	ErrNoTickets = errors.New("no tickets in participant set")

	// ErrPaymentNotFound is returned for a status update about a payment
	// the ledger never issued
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrRoundMismatch is returned when a payment confirms after its round
	// already closed. The money needs manual reconciliation; crediting it
	// to a different round is never acceptable.
	ErrRoundMismatch = errors.New("payment round is no longer active")

	// ErrNoParticipants is returned when the bank is sufficient but no
	// tickets exist. Should not occur given the crediting invariants.
	ErrNoParticipants = errors.New("no participants despite sufficient bank")

	// ErrUnsupportedCurrency is returned for a currency outside the
	// configured set
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrAmountTooSmall is returned when a purchase is below the
	// per-currency minimum or buys fewer than the minimum ticket count
	ErrAmountTooSmall = errors.New("amount too small")

	// ErrInvalidAddress is returned when a wallet address fails the
	// currency's validation pattern
	ErrInvalidAddress = errors.New("invalid wallet address")
)
