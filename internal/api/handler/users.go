package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/request"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/users"
)

// UserHandler handles identity endpoints
type UserHandler struct {
	users *users.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *users.Service) *UserHandler {
	return &UserHandler{users: users}
}

// Signup handles POST /api/v1/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.users.Signup(r.Context(), req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.UserFromModel(user))
}

// Login handles POST /api/v1/auth
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.AuthRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), model.UserID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}
