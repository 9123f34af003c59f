package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/middleware"
	"github.com/mcoot/rpsgame/internal/api/request"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/rooms"
	"github.com/mcoot/rpsgame/internal/services/round"
)

// readyOK is the message of a successful ready toggle
const readyOK = "ok"

// RoomHandler handles room and round endpoints
type RoomHandler struct {
	rooms  *rooms.Service
	engine *round.Engine
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *rooms.Service, engine *round.Engine) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		engine: engine,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	code, err := h.rooms.CreateRoom(r.Context(), middleware.ResolveUserID(r.Context(), req.UserID))
	if err != nil {
		apierr.WriteErrorWith(w, err, unknownUserUnauthorized)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomCreated{RoomCode: string(code)})
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.engine.Join(r.Context(), mux.Vars(r)["code"], middleware.ResolveUserID(r.Context(), req.UserID))
	if err != nil {
		apierr.WriteErrorWith(w, err, unknownUserUnauthorized)
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: string(result)})
}

// Ready handles POST /api/v1/rooms/{code}/ready
func (h *RoomHandler) Ready(w http.ResponseWriter, r *http.Request) {
	var req request.ReadyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	ready := req.Ready == nil || *req.Ready
	err := h.engine.SetReady(r.Context(), mux.Vars(r)["code"], middleware.ResolveUserID(r.Context(), req.UserID), ready)
	if err != nil {
		apierr.WriteErrorWith(w, err, unknownUserUnauthorized)
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: readyOK})
}

// Move handles POST /api/v1/rooms/{code}/move
func (h *RoomHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	outcome, err := h.engine.SubmitMove(r.Context(), mux.Vars(r)["code"], middleware.ResolveUserID(r.Context(), req.UserID), req.Choice)
	if err != nil {
		apierr.WriteErrorWith(w, err, unknownUserUnauthorized)
		return
	}

	response.JSON(w, http.StatusOK, response.MoveFromOutcome(outcome))
}

// Restart handles POST /api/v1/rooms/{code}/restart
func (h *RoomHandler) Restart(w http.ResponseWriter, r *http.Request) {
	var req request.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.engine.RequestRestart(r.Context(), mux.Vars(r)["code"], middleware.ResolveUserID(r.Context(), req.UserID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: string(result)})
}

// Scoreboard handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.engine.Scoreboard(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreboardFromRound(board))
}

// State handles GET /api/v1/rooms/{code}/state
func (h *RoomHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.State(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, state)
}
