package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rpsgame/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeMissingUserID   = "MISSING_USER_ID"
	CodeMissingUsername = "MISSING_USERNAME"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeUsernameTaken   = "USERNAME_TAKEN"
	CodeRoomNotFound    = "ROOM_NOT_FOUND"
	CodeRoomFull        = "ROOM_FULL"
	CodeNotParticipant  = "NOT_PARTICIPANT"
	CodeInvalidState    = "INVALID_STATE"
	CodeInvalidPlayer   = "INVALID_PLAYER"
	CodeInvalidMove     = "INVALID_MOVE"
	CodeCodesExhausted  = "CODES_EXHAUSTED"
	CodeContended       = "CONTENDED"
	CodeLedgerDown      = "LEDGER_UNAVAILABLE"
	CodeStreamClosed    = "STREAM_CLOSED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Overrides replaces the default status of selected sentinels on one route
type Overrides map[error]int

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// mapping is checked in order; the first sentinel matched with errors.Is wins
var mapping = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrMissingUserID, http.StatusBadRequest, CodeMissingUserID},
	{model.ErrMissingUsername, http.StatusBadRequest, CodeMissingUsername},
	{model.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound},
	{model.ErrUsernameTaken, http.StatusConflict, CodeUsernameTaken},
	{model.ErrRoomNotFound, http.StatusNotFound, CodeRoomNotFound},
	{model.ErrRoomFull, http.StatusForbidden, CodeRoomFull},
	{model.ErrNotParticipant, http.StatusForbidden, CodeNotParticipant},
	{model.ErrInvalidState, http.StatusBadRequest, CodeInvalidState},
	{model.ErrInvalidPlayer, http.StatusBadRequest, CodeInvalidPlayer},
	{model.ErrInvalidMove, http.StatusBadRequest, CodeInvalidMove},
	{model.ErrCodesExhausted, http.StatusServiceUnavailable, CodeCodesExhausted},
	{model.ErrRealtimeContend, http.StatusServiceUnavailable, CodeContended},
	{model.ErrLedgerDown, http.StatusServiceUnavailable, CodeLedgerDown},
	{model.ErrStreamClosed, http.StatusServiceUnavailable, CodeStreamClosed},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorWith(w, err, nil)
}

// WriteErrorWith writes an error response, applying route specific status overrides
func WriteErrorWith(w http.ResponseWriter, err error, overrides Overrides) {
	he := toHTTPError(err, overrides)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the status WriteErrorWith would use for err
func StatusOf(err error, overrides Overrides) int {
	return toHTTPError(err, overrides).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error, overrides Overrides) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range mapping {
		if !errors.Is(err, m.err) {
			continue
		}
		status := m.status
		if s, ok := overrides[m.err]; ok {
			status = s
		}
		return &httpError{status, APIError{m.code, m.err.Error()}}
	}

	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
