package chat

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/triage"
)

// Domain errors for chat operations.
var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message required")
)

// MapHTTPStatus maps chat errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrSessionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyMessage) {
		return http.StatusBadRequest
	}
	if errors.Is(err, auth.ErrUnauthorized) || errors.Is(err, auth.ErrForbidden) {
		return auth.MapHTTPStatus(err)
	}
	return triage.MapHTTPStatus(err)
}
