package services

import (
	"fmt"
	"regexp"
	"strings"
)

// SupportedCurrency describes a cryptocurrency players can pay and be paid in
type SupportedCurrency struct {
	Code            string // lowercase
	Name            string
	MinPaymentCents int64
}

// Settings carries the lottery configuration the settlement engine depends on.
// Amounts are USD cents.
type Settings struct {
	TicketPriceCents     int64
	PrizeCents           int64
	MinBankCents         int64
	MinTicketsPerPayment int64

	// Payout configuration
	AutoPayout           bool
	PayoutCurrency       string // preferred winner payout currency, lowercase
	OwnerPayoutCurrency  string
	OwnerWallets         []string
	IdempotencyNamespace string

	Currencies      map[string]SupportedCurrency // keyed by lowercase code
	AddressPatterns map[string]*regexp.Regexp    // keyed by lowercase code
}

// Currency looks up a supported currency by code, ignoring case
func (s Settings) Currency(code string) (SupportedCurrency, bool) {
	c, ok := s.Currencies[strings.ToLower(code)]
	return c, ok
}

// DrawThresholdCents returns the bank a round must reach before it is drawn.
// The threshold is inclusive: a bank exactly equal to it proceeds.
func (s Settings) DrawThresholdCents(roundPrizeCents int64) int64 {
	threshold := roundPrizeCents
	if s.MinBankCents > threshold {
		threshold = s.MinBankCents
	}
	return threshold
}

// WinnerPayoutKey derives the idempotency key for a round's winner payout.
// The key depends only on the round, so a retried settlement reuses it.
func (s Settings) WinnerPayoutKey(roundID int64) string {
	return fmt.Sprintf("%s:%d:winner", s.IdempotencyNamespace, roundID)
}

// OwnerPayoutKey derives the idempotency key for one beneficiary's share of a
// round's leftover bank. Indexes start at 1.
func (s Settings) OwnerPayoutKey(roundID int64, index int) string {
	return fmt.Sprintf("%s:%d:owner:%d", s.IdempotencyNamespace, roundID, index)
}
