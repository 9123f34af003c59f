package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/model"
)

// maxBodyBytes bounds request bodies; every request type is a handful of fields
const maxBodyBytes = 1 << 16

// unknownUserUnauthorized reports an unknown caller as 401 rather than 404.
// Restart keeps the default 404.
var unknownUserUnauthorized = apierr.Overrides{model.ErrUserNotFound: http.StatusUnauthorized}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apierr.NewInvalidRequestError("Invalid request body")
	}
	return nil
}
