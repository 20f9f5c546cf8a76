package interfaces

import (
	"context"

	"cryptoluck/domain/entities"
)

// Seed is a random value used to make winner selection reproducible.
// FromOracle is false when the oracle was unavailable and the value came
// from a local non-reproducible source.
type Seed struct {
	Value      string
	FromOracle bool
}

// SeedOracle fetches a publicly verifiable random value
type SeedOracle interface {
	// GetPublicSeed returns a normalized 64-hex value, or
	// ErrSeedUnavailable once every source and retry is exhausted
	GetPublicSeed(ctx context.Context) (string, error)
}

// Invoice is a provider payment invoice for an inbound purchase
type Invoice struct {
	PaymentID   string
	PayAddress  string
	PayAmount   float64
	PayCurrency string
}

// PayoutReceipt acknowledges an outbound payout accepted by the provider
type PayoutReceipt struct {
	ID     string
	Status string
}

// PayoutGateway is the external payment provider contract. Idempotency keys
// are always caller-supplied and deterministic per logical operation so the
// provider deduplicates network-level retries.
type PayoutGateway interface {
	// CreateInvoice creates an inbound payment invoice priced in USD
	CreateInvoice(ctx context.Context, amountCents int64, payCurrency, orderRef string) (*Invoice, error)

	// CreatePayout sends funds to an address under the given idempotency key
	CreatePayout(ctx context.Context, currency string, amountCents int64, address, idempotencyKey string) (*PayoutReceipt, error)

	// VerifySignature checks the provider's keyed hash over the raw
	// callback body in constant time
	VerifySignature(rawBody []byte, signature string) bool
}

// CreditResult describes the outcome of ingesting one payment confirmation
type CreditResult struct {
	Payment     *entities.Payment
	TicketCount int64
}

// DrawResult describes the outcome of one draw attempt
type DrawResult struct {
	Round          *entities.Round
	RolledOver     bool
	SelfHealed     bool // no active round existed; one was created instead of drawing
	Winner         *entities.User
	CollectedCents int64
	Seed           Seed
	NextRound      *entities.Round
	Payout         *PayoutOutcome
}

// PayoutOutcome describes how the winner's prize was settled
type PayoutOutcome struct {
	Manual       bool
	Reason       string
	CurrencyCode string
	Address      string
}

// SettlementService orchestrates the round lifecycle: crediting confirmed
// payments into tickets, drawing winners and settling payouts
type SettlementService interface {
	// IngestPaymentUpdate applies one provider status update. Confirmed
	// payments are credited exactly once; duplicate confirmations are a
	// no-op and failed statuses only advance the payment status.
	IngestPaymentUpdate(ctx context.Context, externalID string, confirmedCents int64, status entities.PaymentStatus) (*CreditResult, error)

	// ConductDraw runs one draw attempt against the active round
	ConductDraw(ctx context.Context) (*DrawResult, error)

	// SettleWinnerPayout pays the prize to the winner, or escalates to the
	// manual payout path. Escalation is a valid terminal outcome, not an
	// error.
	SettleWinnerPayout(ctx context.Context, winner *entities.User, prizeCents, collectedCents, roundID int64) (*PayoutOutcome, error)
}

// PurchaseResult describes a created ticket purchase invoice
type PurchaseResult struct {
	Payment *entities.Payment
	Invoice *Invoice
}

// PaymentService handles inbound ticket purchases
type PaymentService interface {
	// CreateTicketPurchase creates a provider invoice and a waiting
	// payment bound to the active round
	CreateTicketPurchase(ctx context.Context, userID int64, payCurrency string, amountCents int64) (*PurchaseResult, error)
}

// UserService defines the interface for user and wallet operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates one
	GetOrCreateUser(ctx context.Context, id int64, username string) (*entities.User, error)

	// SetLanguage persists the user's language preference
	SetLanguage(ctx context.Context, id int64, languageCode string) error

	// SetWallet validates and saves a payout address for a currency,
	// overwriting any previous address for that currency
	SetWallet(ctx context.Context, userID int64, currencyCode, address string) error

	// GetWallets returns the user's registered payout wallets
	GetWallets(ctx context.Context, userID int64) ([]*entities.Wallet, error)

	// GetTicketCount returns the user's ticket count in the active round
	GetTicketCount(ctx context.Context, userID int64) (int64, error)
}
