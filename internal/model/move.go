package model

import "strings"

// Move is one of the three hand shapes. Wire values are the Spanish names.
type Move string

const (
	MoveRock     Move = "piedra"
	MovePaper    Move = "papel"
	MoveScissors Move = "tijeras"
)

// Winner names the slot that won a round, or a tie
type Winner string

const (
	WinnerPlayer1 Winner = "player1"
	WinnerPlayer2 Winner = "player2"
	WinnerTie     Winner = "tie"
)

var moveAliases = map[string]Move{
	"piedra":   MoveRock,
	"rock":     MoveRock,
	"papel":    MovePaper,
	"paper":    MovePaper,
	"tijeras":  MoveScissors,
	"tijera":   MoveScissors,
	"scissors": MoveScissors,
}

// ParseMove accepts the canonical names and their English aliases, case-insensitively
func ParseMove(s string) (Move, error) {
	m, ok := moveAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", ErrInvalidMove
	}
	return m, nil
}

// Valid reports whether m is one of the canonical moves
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	}
	return false
}

// Beats reports whether m defeats other
func (m Move) Beats(other Move) bool {
	switch m {
	case MoveRock:
		return other == MoveScissors
	case MoveScissors:
		return other == MovePaper
	case MovePaper:
		return other == MoveRock
	}
	return false
}

// Resolve decides a round from the two slot choices
func Resolve(player1, player2 Move) Winner {
	switch {
	case player1 == player2:
		return WinnerTie
	case player1.Beats(player2):
		return WinnerPlayer1
	default:
		return WinnerPlayer2
	}
}

// Slot returns the slot of the winner and false on a tie
func (w Winner) Slot() (Slot, bool) {
	switch w {
	case WinnerPlayer1:
		return SlotPlayer1, true
	case WinnerPlayer2:
		return SlotPlayer2, true
	}
	return "", false
}
