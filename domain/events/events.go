package events

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTicketsCredited      EventType = "tickets_credited"
	EventTypeWinnerAnnounced      EventType = "winner_announced"
	EventTypeRoundRolledOver      EventType = "round_rolled_over"
	EventTypeManualPayoutRequired EventType = "manual_payout_required"
	EventTypePayoutCompleted      EventType = "payout_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TicketsCreditedEvent is emitted when a confirmed payment is turned into tickets
type TicketsCreditedEvent struct {
	UserID      int64
	RoundID     int64
	TicketCount int64
	AmountCents int64
}

func (e TicketsCreditedEvent) Type() EventType {
	return EventTypeTicketsCredited
}

// WinnerAnnouncedEvent is emitted when a draw completes with a winner
type WinnerAnnouncedEvent struct {
	RoundID        int64
	WinnerID       int64
	PrizeCents     int64
	CollectedCents int64
	Seed           string
	SeedFromOracle bool
}

func (e WinnerAnnouncedEvent) Type() EventType {
	return EventTypeWinnerAnnounced
}

// RoundRolledOverEvent is emitted when the bank did not reach the target and
// the round carries over to the next draw attempt
type RoundRolledOverEvent struct {
	RoundID        int64
	CollectedCents int64
	TargetCents    int64
}

func (e RoundRolledOverEvent) Type() EventType {
	return EventTypeRoundRolledOver
}

// CandidateWallet describes a payout address usable for a manual payout
type CandidateWallet struct {
	CurrencyCode string
	CurrencyName string
	Address      string
}

// ManualPayoutRequiredEvent is emitted when the automatic payout cannot be
// made and an operator must pay the winner by hand
type ManualPayoutRequiredEvent struct {
	RoundID    int64
	WinnerID   int64
	PrizeCents int64
	Wallets    []CandidateWallet
	Reason     string
}

func (e ManualPayoutRequiredEvent) Type() EventType {
	return EventTypeManualPayoutRequired
}

// PayoutCompletedEvent is emitted after a successful automatic prize payout
type PayoutCompletedEvent struct {
	RoundID      int64
	WinnerID     int64
	PrizeCents   int64
	CurrencyCode string
	Address      string
}

func (e PayoutCompletedEvent) Type() EventType {
	return EventTypePayoutCompleted
}
