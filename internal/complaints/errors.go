package complaints

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/triage"
)

// Domain errors for complaint operations.
var (
	ErrNotFound  = errors.New("complaint not found")
	ErrDuplicate = errors.New("complaint already exists")
	ErrInvalidID = errors.New("invalid complaint id")
)

// MapHTTPStatus maps complaint, triage, and auth errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	if errors.Is(err, auth.ErrUnauthorized) || errors.Is(err, auth.ErrForbidden) {
		return auth.MapHTTPStatus(err)
	}
	return triage.MapHTTPStatus(err)
}
