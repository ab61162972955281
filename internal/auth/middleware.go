package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/triage/pkg/handlers"
)

// Middleware attaches the request principal to the request context.
// With a nil verifier every request acts as demo. Otherwise a bearer token
// is required, read from the Authorization header or, for WebSocket
// upgrades, the access_token query parameter.
func Middleware(v Verifier, demo Principal, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), demo)))
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			p, err := v.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, logger, MapHTTPStatus(err), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
