package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ramonehamilton/wishlist-companion/internal/api/response"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
)

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return errors.New("invalid request body")
	}
	return nil
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		response.NotFound(w, err)
	case errors.Is(err, library.ErrSourceRequired):
		response.BadRequest(w, err)
	default:
		response.InternalError(w, err)
	}
}
