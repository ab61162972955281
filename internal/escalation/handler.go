package escalation

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
)

// NotifyResponse confirms an admin notification request.
type NotifyResponse struct {
	ComplaintID uuid.UUID          `json:"complaint_id"`
	Kind        notifications.Kind `json:"kind"`
	Queued      bool               `json:"queued"`
}

// Handler provides HTTP endpoints for escalation operations.
type Handler struct {
	machine  *Machine
	eligible Eligibility
	logger   *slog.Logger
}

// NewHandler creates a Handler. eligible drives the admin sweep endpoint.
func NewHandler(machine *Machine, eligible Eligibility, logger *slog.Logger) *Handler {
	return &Handler{
		machine:  machine,
		eligible: eligible,
		logger:   logger.With("handler", "escalation"),
	}
}

// Routes returns the escalation routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/complaints",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/escalate", Handler: h.Escalate},
					{Method: "POST", Pattern: "/{id}/notify", Handler: h.Notify},
				},
			},
			{
				Prefix: "/admin",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/auto-escalate", Handler: h.Sweep},
				},
			},
		},
	}
}

// Escalate raises one complaint's escalation level.
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}

	o, err := h.machine.Escalate(r.Context(), p, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, o)
}

// Sweep runs the configured auto-escalation policy once.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	ids, err := h.machine.Sweep(r.Context(), p, h.eligible)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, SweepResult{Escalated: ids, Count: len(ids)})
}

// Notify sends a notification of the kind named by the type query parameter.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}

	kind, err := notifications.ParseKind(r.URL.Query().Get("type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.machine.Notify(r.Context(), p, id, kind); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, NotifyResponse{
		ComplaintID: id,
		Kind:        kind,
		Queued:      true,
	})
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (auth.Principal, uuid.UUID, bool) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return auth.Principal{}, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, complaints.ErrInvalidID)
		return auth.Principal{}, uuid.Nil, false
	}

	return p, id, true
}
