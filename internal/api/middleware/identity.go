package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/rpsgame/internal/model"
)

// UserIDHeader lets clients identify themselves without repeating userId in every body
const UserIDHeader = "X-User-ID"

type callerKey struct{}

// Identity records the caller's claimed user id in the request context. The
// header wins over the userId query parameter. Nothing is verified here; the
// services look the id up.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if id == "" {
			id = strings.TrimSpace(r.URL.Query().Get("userId"))
		}
		if id != "" {
			r = r.WithContext(context.WithValue(r.Context(), callerKey{}, model.UserID(id)))
		}
		next.ServeHTTP(w, r)
	})
}

// CallerID returns the user id recorded by Identity, or "" when absent
func CallerID(ctx context.Context) model.UserID {
	id, _ := ctx.Value(callerKey{}).(model.UserID)
	return id
}

// ResolveUserID prefers an id given in the request body over the caller id
func ResolveUserID(ctx context.Context, bodyID string) model.UserID {
	if id := strings.TrimSpace(bodyID); id != "" {
		return model.UserID(id)
	}
	return CallerID(ctx)
}
