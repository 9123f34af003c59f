package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrMissingUserID   = errors.New("user id is required")
	ErrMissingUsername = errors.New("username is required")

	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrCodeTaken       = errors.New("room code already in use")
	ErrCodesExhausted  = errors.New("could not generate a unique room code")
	ErrNotParticipant  = errors.New("user is not a participant of this room")
	ErrRealtimeContend = errors.New("room record changed concurrently too many times")
	ErrLedgerDown      = errors.New("score ledger is unavailable, try again")
	ErrStreamClosed    = errors.New("room stream closed")

	// Round errors
	ErrInvalidState  = errors.New("action not allowed in the current round phase")
	ErrInvalidPlayer = errors.New("user occupies neither slot")
	ErrInvalidMove   = errors.New("invalid move")
)

// Kind is the coarse category of a domain error
type Kind string

const (
	KindNone         Kind = ""
	KindNotFound     Kind = "NotFound"
	KindForbidden    Kind = "Forbidden"
	KindInvalidState Kind = "InvalidState"
	KindConflict     Kind = "Conflict"
	KindExhausted    Kind = "Exhausted"
	KindInvalidInput Kind = "InvalidInput"
)

// KindOf classifies err. Unknown errors yield KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrRoomNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotParticipant):
		return KindForbidden
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidPlayer), errors.Is(err, ErrInvalidMove):
		return KindInvalidState
	case errors.Is(err, ErrRoomFull), errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrCodeTaken):
		return KindConflict
	case errors.Is(err, ErrCodesExhausted), errors.Is(err, ErrRealtimeContend), errors.Is(err, ErrLedgerDown),
		errors.Is(err, ErrStreamClosed):
		return KindExhausted
	case errors.Is(err, ErrMissingUserID), errors.Is(err, ErrMissingUsername):
		return KindInvalidInput
	}
	return KindNone
}
