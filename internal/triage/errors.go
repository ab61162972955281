package triage

import (
	"errors"
	"net/http"
)

// Domain errors for triage operations.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvariantViolation = errors.New("invariant violation")
)

// MapHTTPStatus maps triage domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInvariantViolation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
