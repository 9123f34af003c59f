package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/testutil"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   model.UserID
	}{
		{"none", "/rooms/X/events", "", ""},
		{"query", "/rooms/X/events?userId=u1", "", "u1"},
		{"header", "/rooms/X/events", "u2", "u2"},
		{"header wins", "/rooms/X/events?userId=u1", "u2", "u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.UserID
			h := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = CallerID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUserIDPrefersBody(t *testing.T) {
	var body, fallback model.UserID
	h := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = ResolveUserID(r.Context(), " u-body ")
		fallback = ResolveUserID(r.Context(), "")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(UserIDHeader, "u-header")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, model.UserID("u-body"), body)
	assert.Equal(t, model.UserID("u-header"), fallback)
}

func TestRecoveryWritesJSON(t *testing.T) {
	h := Recovery(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, apierr.CodeInternalError, resp.Error.Code)
}
