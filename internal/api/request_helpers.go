package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/api/shared"
)

// decodeAndValidate decodes the body into v and validates it, writing a 400
// response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err), "")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err), "")
		return false
	}
	return true
}

// getPathParam returns a required path parameter.
func getPathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}
	return value, nil
}

// getPathUUID parses a path parameter as a UUID.
func getPathUUID(r *http.Request, name string) (uuid.UUID, error) {
	value, err := getPathParam(r, name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", ErrInvalidRequest, name)
	}
	return id, nil
}
