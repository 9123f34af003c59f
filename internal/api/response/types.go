package response

import (
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/round"
)

// User represents a user in API responses
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:       string(u.ID),
		Username: u.Username,
	}
}

// RoomCreated is the response for POST /api/v1/rooms
type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

// Message is the response of actions that only report an outcome label
type Message struct {
	Message string `json:"message"`
}

// Winner identifies the participant that won a round
type Winner struct {
	Slot     string `json:"slot"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Move is the response for POST /api/v1/rooms/{code}/move. A move that
// completes the pair carries the result. Otherwise Message is "recorded"
// and Waiting is set.
type Move struct {
	Message string             `json:"message,omitempty"`
	Waiting bool               `json:"waiting,omitempty"`
	Result  model.Winner       `json:"result,omitempty"`
	Winner  *Winner            `json:"winner,omitempty"`
	Round   *model.RoundRecord `json:"round,omitempty"`
	Score   *model.Score       `json:"score,omitempty"`
	Warning string             `json:"warning,omitempty"`
}

// MoveRecorded is the message of a move that waits for the opponent
const MoveRecorded = "recorded"

// MoveFromOutcome converts a round.MoveOutcome
func MoveFromOutcome(o *round.MoveOutcome) Move {
	if !o.Resolved {
		return Move{Message: MoveRecorded, Waiting: true}
	}
	resp := Move{
		Result:  o.Winner,
		Round:   o.Round,
		Score:   o.Score,
		Warning: o.Warning,
	}
	if o.WinnerUser != nil {
		resp.Winner = &Winner{
			Slot:     string(o.WinnerSlot),
			UserID:   string(o.WinnerUser.UserID),
			Username: o.WinnerUser.Username,
		}
	}
	return resp
}

// Scoreboard is the response for GET /api/v1/rooms/{code}
type Scoreboard struct {
	RoomCode string              `json:"roomCode"`
	Score    model.Score         `json:"score"`
	History  []model.RoundRecord `json:"history"`
}

// ScoreboardFromRound converts a round.Scoreboard
func ScoreboardFromRound(s *round.Scoreboard) Scoreboard {
	history := s.History
	if history == nil {
		history = []model.RoundRecord{}
	}
	return Scoreboard{
		RoomCode: string(s.Code),
		Score:    s.Score,
		History:  history,
	}
}

// Health is the response for GET /api/v1/health
type Health struct {
	Status string `json:"status"`
}
