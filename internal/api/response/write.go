package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// JSON writes a JSON response. API resources are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// PNG writes an image that may be cached for maxAge seconds
func PNG(w http.ResponseWriter, data []byte, maxAge int) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
