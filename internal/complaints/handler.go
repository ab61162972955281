package complaints

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/triage"
	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/routes"
)

// Handler provides HTTP endpoints for complaint operations.
type Handler struct {
	sys        System
	authz      auth.Authorizer
	logger     *slog.Logger
	pagination pagination.Config
	maxBody    int64
}

// SearchRequest combines pagination and filter criteria for the admin search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler. maxBody limits request bodies in bytes.
func NewHandler(
	sys System,
	authz auth.Authorizer,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBody int64,
) *Handler {
	return &Handler{
		sys:        sys,
		authz:      authz,
		logger:     logger.With("handler", "complaints"),
		pagination: pagination,
		maxBody:    maxBody,
	}
}

// Routes returns the owner routes under /complaints and the admin routes
// under /admin.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/complaints",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.List},
					{Method: "POST", Pattern: "", Handler: h.Create},
					{Method: "GET", Pattern: "/{id}", Handler: h.Find},
					{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
				},
			},
			{
				Prefix: "/admin",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/complaints", Handler: h.AdminList},
					{Method: "POST", Pattern: "/complaints/search", Handler: h.AdminSearch},
					{Method: "GET", Pattern: "/analytics", Handler: h.Analytics},
				},
			},
		},
	}
}

// List returns the caller's complaints. Query filters other than user_id apply.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	filters.UserID = &p.ID

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create triages and registers a complaint for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	cmd, err := handlers.DecodeJSON[CreateCommand](w, r, h.maxBody)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", triage.ErrValidation, err))
		return
	}

	c, err := h.sys.Create(r.Context(), p.ID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, c)
}

// Find returns one complaint to its owner or an admin.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	c, ok := h.authorized(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}

// Update applies a partial update on behalf of the owner or an admin.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.authorized(w, r)
	if !ok {
		return
	}

	cmd, err := handlers.DecodeJSON[UpdateCommand](w, r, h.maxBody)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", triage.ErrValidation, err))
		return
	}
	if cmd.Empty() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: no fields to update", triage.ErrValidation))
		return
	}

	updated, err := h.sys.Update(r.Context(), c.ID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, updated)
}

// AdminList returns all complaints with query parameter filters.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// AdminSearch accepts pagination and filter criteria as a JSON body.
func (h *Handler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}

	req, err := handlers.DecodeJSON[SearchRequest](w, r, h.maxBody)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", triage.ErrValidation, err))
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Analytics returns the complaint population summary.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}

	a, err := h.sys.Analytics(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) bool {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return false
	}
	if !h.authz.IsAdmin(r.Context(), p) {
		handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
		return false
	}
	return true
}

// authorized loads the complaint named by the path and checks that the
// caller owns it or is an admin.
func (h *Handler) authorized(w http.ResponseWriter, r *http.Request) (*Complaint, bool) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return nil, false
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	if !c.OwnedBy(p.ID) && !h.authz.IsAdmin(r.Context(), p) {
		handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
		return nil, false
	}

	return c, true
}
