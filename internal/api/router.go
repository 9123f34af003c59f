package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/handler"
	"github.com/mcoot/rpsgame/internal/api/middleware"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/rooms"
	"github.com/mcoot/rpsgame/internal/services/round"
	"github.com/mcoot/rpsgame/internal/services/users"
	"github.com/mcoot/rpsgame/internal/stream"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	UserService *users.Service
	RoomService *rooms.Service
	RoundEngine *round.Engine
	HubManager  *stream.HubManager
	Presence    stream.Presence
	PublicURL   string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.UserService)
	roomHandler := handler.NewRoomHandler(cfg.RoomService, cfg.RoundEngine)
	streamHandler := handler.NewStreamHandler(cfg.RoomService, cfg.HubManager, cfg.Presence, cfg.PublicURL, cfg.Logger)

	// API subrouter with common middleware. Logging is outermost so panics
	// are logged with their request id and final status.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Identity)

	// Identity
	api.HandleFunc("/signup", userHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth", userHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", userHandler.Get).Methods(http.MethodGet)

	// Rooms and rounds
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}", roomHandler.Scoreboard).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/ready", roomHandler.Ready).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/move", roomHandler.Move).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/restart", roomHandler.Restart).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/state", roomHandler.State).Methods(http.MethodGet)

	// Push transports and sharing
	api.HandleFunc("/rooms/{code}/events", streamHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/ws", streamHandler.WebSocket).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/qr", streamHandler.QR).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
