package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTable(t *testing.T) {
	tests := []struct {
		p1, p2 Move
		want   Winner
	}{
		{MoveRock, MoveScissors, WinnerPlayer1},
		{MoveScissors, MovePaper, WinnerPlayer1},
		{MovePaper, MoveRock, WinnerPlayer1},
		{MoveScissors, MoveRock, WinnerPlayer2},
		{MovePaper, MoveScissors, WinnerPlayer2},
		{MoveRock, MovePaper, WinnerPlayer2},
		{MoveRock, MoveRock, WinnerTie},
		{MovePaper, MovePaper, WinnerTie},
		{MoveScissors, MoveScissors, WinnerTie},
	}

	for _, tt := range tests {
		t.Run(string(tt.p1)+"_vs_"+string(tt.p2), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.p1, tt.p2))
		})
	}
}

// Swapping which slot holds a move swaps only the label of the winner
func TestResolveSwapsLabelOnly(t *testing.T) {
	moves := []Move{MoveRock, MovePaper, MoveScissors}
	mirror := map[Winner]Winner{
		WinnerPlayer1: WinnerPlayer2,
		WinnerPlayer2: WinnerPlayer1,
		WinnerTie:     WinnerTie,
	}
	for _, a := range moves {
		for _, b := range moves {
			assert.Equal(t, mirror[Resolve(a, b)], Resolve(b, a), "%s vs %s", a, b)
		}
	}
}

func TestParseMove(t *testing.T) {
	for in, want := range map[string]Move{
		"piedra":   MoveRock,
		"Rock":     MoveRock,
		" papel ":  MovePaper,
		"paper":    MovePaper,
		"TIJERAS":  MoveScissors,
		"scissors": MoveScissors,
	} {
		got, err := ParseMove(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
		assert.True(t, got.Valid())
	}

	_, err := ParseMove("lizard")
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.False(t, Move("lizard").Valid())
}

func TestScoreAdd(t *testing.T) {
	var s Score
	s.Add(WinnerPlayer1)
	s.Add(WinnerTie)
	s.Add(WinnerPlayer2)
	s.Add(WinnerPlayer1)
	assert.Equal(t, Score{Player1: 2, Player2: 1}, s)
}
