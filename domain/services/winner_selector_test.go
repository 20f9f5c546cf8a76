package services

import (
	"fmt"
	"testing"

	"cryptoluck/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWinner_Deterministic(t *testing.T) {
	t.Parallel()

	participants := []*entities.Participant{
		{UserID: 100, TicketCount: 3},
		{UserID: 200, TicketCount: 6},
		{UserID: 300, TicketCount: 1},
	}
	seed := "00000000000000000001b2f2c5e1b0d9d1a3e2f70f4b1c9a8e7d6c5b4a392817"

	first, err := SelectWinner(participants, seed)
	require.NoError(t, err)

	// Same inputs must always produce the same winner
	for i := 0; i < 10; i++ {
		winner, err := SelectWinner(participants, seed)
		require.NoError(t, err)
		assert.Equal(t, first, winner)
	}
}

func TestWinnerAt_CumulativeMapping(t *testing.T) {
	t.Parallel()

	// User 1 holds 3 tickets (indexes 0-2), user 2 holds 6 (indexes 3-8)
	ordered := []*entities.Participant{
		{UserID: 1, TicketCount: 3},
		{UserID: 2, TicketCount: 6},
	}

	tests := []struct {
		index  int64
		winner int64
	}{
		{index: 0, winner: 1},
		{index: 2, winner: 1},
		{index: 3, winner: 2},
		{index: 4, winner: 2},
		{index: 8, winner: 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("index_%d", tt.index), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.winner, winnerAt(ordered, tt.index))
		})
	}
}

func TestSelectWinner_InputOrderIndependent(t *testing.T) {
	t.Parallel()

	seed := "deadbeef"
	ordered := []*entities.Participant{
		{UserID: 1, TicketCount: 2},
		{UserID: 2, TicketCount: 5},
		{UserID: 3, TicketCount: 3},
	}
	shuffled := []*entities.Participant{
		{UserID: 3, TicketCount: 3},
		{UserID: 1, TicketCount: 2},
		{UserID: 2, TicketCount: 5},
	}

	w1, err := SelectWinner(ordered, seed)
	require.NoError(t, err)
	w2, err := SelectWinner(shuffled, seed)
	require.NoError(t, err)

	assert.Equal(t, w1, w2, "winner must not depend on input order")
}

func TestSelectWinner_NoTickets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		participants []*entities.Participant
	}{
		{name: "empty slice", participants: nil},
		{name: "all zero counts", participants: []*entities.Participant{
			{UserID: 1, TicketCount: 0},
			{UserID: 2, TicketCount: 0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := SelectWinner(tt.participants, "seed")
			assert.ErrorIs(t, err, ErrNoTickets)
		})
	}
}

func TestSelectWinner_SingleParticipant(t *testing.T) {
	t.Parallel()

	participants := []*entities.Participant{{UserID: 42, TicketCount: 7}}

	for _, seed := range []string{"a", "b", "c", "banana"} {
		winner, err := SelectWinner(participants, seed)
		require.NoError(t, err)
		assert.Equal(t, int64(42), winner)
	}
}

func TestSelectWinner_ZeroTicketParticipantNeverWins(t *testing.T) {
	t.Parallel()

	participants := []*entities.Participant{
		{UserID: 1, TicketCount: 0},
		{UserID: 2, TicketCount: 4},
	}

	for i := 0; i < 50; i++ {
		winner, err := SelectWinner(participants, fmt.Sprintf("seed-%d", i))
		require.NoError(t, err)
		assert.Equal(t, int64(2), winner)
	}
}

func TestSelectWinner_WeightedCoverage(t *testing.T) {
	t.Parallel()

	// A holds 3 of 9 tickets, B holds 6. Across many seeds both must win at
	// least once and B should win more often.
	participants := []*entities.Participant{
		{UserID: 1, TicketCount: 3},
		{UserID: 2, TicketCount: 6},
	}

	wins := map[int64]int{}
	for i := 0; i < 300; i++ {
		winner, err := SelectWinner(participants, fmt.Sprintf("block-%d", i))
		require.NoError(t, err)
		wins[winner]++
	}

	assert.Positive(t, wins[1])
	assert.Positive(t, wins[2])
	assert.Greater(t, wins[2], wins[1], "participant with twice the tickets should win more often")
}
