package model

import "time"

// RoomCode is the short human-shareable identifier of a room
type RoomCode string

// RoundID identifies a resolved round. It is the ledger's idempotency key.
type RoundID string

// Score is the persistent per-slot win count
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// Add credits the winning slot. Ties change nothing.
func (s *Score) Add(w Winner) {
	switch w {
	case WinnerPlayer1:
		s.Player1++
	case WinnerPlayer2:
		s.Player2++
	}
}

// RoundRecord is one entry of the append-only round history
type RoundRecord struct {
	ID            RoundID   `json:"id"`
	Player1Choice Move      `json:"player1Choice"`
	Player2Choice Move      `json:"player2Choice"`
	Winner        Winner    `json:"winner"`
	Timestamp     time.Time `json:"timestamp"`
}

// RoomIndex is the persistent row behind a short code
type RoomIndex struct {
	Code      RoomCode      `json:"code"`
	Key       RoomKey       `json:"key"`
	Owner     UserID        `json:"owner"`
	Score     Score         `json:"score"`
	History   []RoundRecord `json:"history"`
	CreatedAt time.Time     `json:"createdAt"`
}
