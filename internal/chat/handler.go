package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/triage"
	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
)

// MessageRequest is the body of a chat turn, over HTTP or as a WebSocket frame.
type MessageRequest struct {
	Message     string     `json:"message"`
	SessionID   string     `json:"session_id,omitempty"`
	ComplaintID *uuid.UUID `json:"complaint_id,omitempty"`
}

// ErrorFrame is sent over WebSocket when a frame cannot be routed.
type ErrorFrame struct {
	Error string `json:"error"`
}

// Handler exposes the router over HTTP and WebSocket.
type Handler struct {
	router   *Router
	logger   *slog.Logger
	maxBody  int64
	upgrader websocket.Upgrader
	shutdown context.Context
}

// NewHandler creates a Handler. Open WebSocket connections are closed when
// shutdown is cancelled. An empty origins list restricts WebSocket upgrades
// to same-origin requests; "*" allows any origin.
func NewHandler(
	router *Router,
	logger *slog.Logger,
	maxBody int64,
	origins []string,
	shutdown context.Context,
) *Handler {
	h := &Handler{
		router:   router,
		logger:   logger.With("handler", "chat"),
		maxBody:  maxBody,
		shutdown: shutdown,
	}
	if len(origins) > 0 {
		h.upgrader.CheckOrigin = allowOrigins(origins)
	}
	return h
}

// Routes returns the route group definition for chat endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/chat",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/message", Handler: h.Message},
			{Method: "GET", Pattern: "/sessions", Handler: h.Sessions},
			{Method: "GET", Pattern: "/history/{id}", Handler: h.History},
			{Method: "GET", Pattern: "/ws", Handler: h.Connect},
		},
	}
}

// Message routes one chat turn for the caller.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	req, err := handlers.DecodeJSON[MessageRequest](w, r, h.maxBody)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", triage.ErrValidation, err))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrEmptyMessage)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.route(p, req))
}

// Sessions lists the caller's sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.router.Sessions(p.ID))
}

// History returns one of the caller's sessions with its turns.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	s, ok := h.router.Session(r.PathValue("id"))
	if !ok || s.UserID != p.ID {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Connect upgrades to a WebSocket carrying MessageRequest frames in and
// Reply frames out. Frames without a session id continue the connection's
// most recent session.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if h.shutdown != nil {
		stop := context.AfterFunc(h.shutdown, func() {
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second),
			)
			conn.Close()
		})
		defer stop()
	}

	if h.maxBody > 0 {
		conn.SetReadLimit(h.maxBody)
	}

	logger := h.logger.With("user_id", p.ID)
	logger.Debug("websocket connected")

	var current string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket closed", "error", err)
			}
			return
		}

		var req MessageRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if conn.WriteJSON(ErrorFrame{Error: fmt.Sprintf("%v: %v", triage.ErrValidation, err)}) != nil {
				return
			}
			continue
		}
		if strings.TrimSpace(req.Message) == "" {
			if conn.WriteJSON(ErrorFrame{Error: ErrEmptyMessage.Error()}) != nil {
				return
			}
			continue
		}

		if req.SessionID == "" {
			req.SessionID = current
		}

		reply := h.route(p, req)
		current = reply.SessionID

		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (h *Handler) route(p auth.Principal, req MessageRequest) Reply {
	return h.router.Route(Request{
		UserID:      p.ID,
		DisplayName: p.Name,
		Message:     req.Message,
		SessionID:   req.SessionID,
		ComplaintID: req.ComplaintID,
	})
}

func allowOrigins(origins []string) func(r *http.Request) bool {
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
