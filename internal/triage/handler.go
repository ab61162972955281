package triage

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
)

// ClassifyRequest is the body of the classify endpoint.
type ClassifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SuggestRequest is the body of the suggest endpoint. Both fields are
// validated against their enumerations during decoding.
type SuggestRequest struct {
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
}

// SuggestResponse wraps the generated suggestions.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// Handler exposes the stateless triage functions over HTTP.
type Handler struct {
	logger  *slog.Logger
	maxBody int64
}

// NewHandler creates a Handler. maxBody limits request bodies in bytes.
func NewHandler(logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		logger:  logger.With("handler", "triage"),
		maxBody: maxBody,
	}
}

// Routes returns the route group definition for triage endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/triage",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/classify", Handler: h.Classify},
			{Method: "POST", Pattern: "/suggest", Handler: h.Suggest},
		},
	}
}

// Classify triages the posted description.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[ClassifyRequest](w, r, h.maxBody)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrValidation, err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Classify(req.Title, req.Description))
}

// Suggest returns suggestions for the posted category and priority.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[SuggestRequest](w, r, h.maxBody)
	if err != nil {
		handlers.RespondError(w, h.logger, decodeStatus(err), err)
		return
	}
	if req.Category == "" || req.Priority == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: category and priority required", ErrValidation))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, SuggestResponse{
		Suggestions: Suggest(req.Category, req.Priority),
	})
}

func decodeStatus(err error) int {
	if status := MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadRequest
}
