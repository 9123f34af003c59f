package stream

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/rpsgame/internal/model"
)

// ServeSSE streams room snapshots to a registered client as server-sent events
func ServeSSE(w http.ResponseWriter, r *http.Request, client *Client, presence Presence) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		client.hub.Unregister(client)
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Streams outlive the server's read and write timeouts
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	goOnline(r.Context(), client, presence)
	defer detach(r.Context(), client, presence)

	// Send initial connection event
	connected, _ := json.Marshal(model.Event{Type: model.EventConnected, Room: client.hub.code})
	_, _ = w.Write(formatSSEMessage(string(model.EventConnected), string(connected)))
	flusher.Flush()

	// Create ticker for keepalive
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(formatSSEMessage(string(model.EventRoomState), string(message))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// Send keepalive comment
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage formats an SSE message with event name and data.
// Multi-line data is sent with a "data: " prefix on each line.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
