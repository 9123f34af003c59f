package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/middleware"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/rooms"
	"github.com/mcoot/rpsgame/internal/stream"
)

const (
	defaultQRSize = 320
	minQRSize     = 64
	maxQRSize     = 1024
	qrMaxAge      = 3600
)

// StreamHandler serves the push transports and the share QR code
type StreamHandler struct {
	rooms     *rooms.Service
	hubs      *stream.HubManager
	presence  stream.Presence
	publicURL string
	logger    *slog.Logger
}

// NewStreamHandler creates a new stream handler. publicURL is the externally
// reachable base used in share links; when empty it is derived per request.
func NewStreamHandler(rooms *rooms.Service, hubs *stream.HubManager, presence stream.Presence, publicURL string, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		rooms:     rooms,
		hubs:      hubs,
		presence:  presence,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger.With(slog.String("component", "api")),
	}
}

// connect resolves the room in the request path and registers a stream
// client for the caller on its hub
func (h *StreamHandler) connect(r *http.Request) (*stream.Client, error) {
	idx, err := h.rooms.Index(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		return nil, err
	}
	return h.hubs.Connect(idx.Code, idx.Key, middleware.CallerID(r.Context()))
}

// Events handles GET /api/v1/rooms/{code}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	client, err := h.connect(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	stream.ServeSSE(w, r, client, h.presence)
}

// WebSocket handles GET /api/v1/rooms/{code}/ws
func (h *StreamHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	client, err := h.connect(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	stream.ServeWS(w, r, client, h.presence)
}

// QR handles GET /api/v1/rooms/{code}/qr with an optional size parameter in pixels
func (h *StreamHandler) QR(w http.ResponseWriter, r *http.Request) {
	idx, err := h.rooms.Index(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		WriteError(w, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			WriteError(w, apierr.NewInvalidRequestError("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	data, err := qrcode.Encode(JoinURL(h.baseURL(r), string(idx.Code)), qrcode.Medium, size)
	if err != nil {
		h.logger.Error("qr generation failed", slog.String("code", string(idx.Code)), slog.Any("error", err))
		WriteError(w, apierr.NewInternalError())
		return
	}

	response.PNG(w, data, qrMaxAge)
}

// baseURL prefers the configured public URL and otherwise uses the request's
// host, respecting X-Forwarded-Proto
func (h *StreamHandler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// JoinURL is the share link of a room. Its last path segment is the code.
func JoinURL(base, code string) string {
	return strings.TrimSuffix(base, "/") + "/api/v1/rooms/" + code
}
