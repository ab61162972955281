package escalation

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/notifications"
)

// MapHTTPStatus maps escalation, notification, and complaint errors to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, notifications.ErrInvalidKind) {
		return http.StatusBadRequest
	}
	if errors.Is(err, notifications.ErrQueueFull) || errors.Is(err, notifications.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	return complaints.MapHTTPStatus(err)
}
