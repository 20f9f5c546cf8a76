package services

import (
	"crypto/sha256"
	"math/rand/v2"
	"sort"

	"cryptoluck/domain/entities"
)

// SelectWinner picks one participant weighted by ticket count. The selection
// is a pure function of its inputs: participants are ordered ascending by
// user ID regardless of input order, and the generator is keyed from the seed
// alone. Given the published seed and the ticket counts, any third party can
// recompute the same winner.
func SelectWinner(participants []*entities.Participant, seed string) (int64, error) {
	var totalTickets int64
	for _, p := range participants {
		totalTickets += p.TicketCount
	}
	if totalTickets == 0 {
		return 0, ErrNoTickets
	}

	ordered := make([]*entities.Participant, len(participants))
	copy(ordered, participants)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].UserID < ordered[j].UserID
	})

	// Hashing the seed makes any oracle value a valid 32-byte key while
	// keeping the draw recomputable from the published seed string.
	key := sha256.Sum256([]byte(seed))
	rng := rand.New(rand.NewChaCha8(key))
	winIndex := rng.Int64N(totalTickets)

	return winnerAt(ordered, winIndex), nil
}

// winnerAt maps a ticket index to the holder of that ticket by walking
// cumulative counts. Index i belongs to the participant whose cumulative
// range covers i, so a user with k tickets owns k consecutive indexes.
func winnerAt(ordered []*entities.Participant, winIndex int64) int64 {
	var cumulative int64
	for _, p := range ordered {
		cumulative += p.TicketCount
		if winIndex < cumulative {
			return p.UserID
		}
	}

	// Unreachable: winIndex < total ticket count
	return ordered[0].UserID
}
