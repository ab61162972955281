// Package chat implements the session-aware conversational router. Each
// turn is routed through an ordered intent cascade and recorded, together
// with the reply, in a per-user session.
package chat

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/triage"
)

// Role identifies the speaker of a turn.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session. Intent and Confidence are set on
// assistant turns only.
type Turn struct {
	Role        Role       `json:"role"`
	Message     string     `json:"message"`
	Intent      Intent     `json:"intent,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
	ComplaintID *uuid.UUID `json:"complaint_id,omitempty"`
	At          time.Time  `json:"at"`
}

// Session is a snapshot of a conversation.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Turns      []Turn    `json:"turns"`
}

// Summary describes a session without its turns.
type Summary struct {
	ID         string    `json:"id"`
	TurnCount  int       `json:"turn_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Request is a single inbound chat turn. An empty or unknown SessionID
// starts a new session.
type Request struct {
	UserID      string
	DisplayName string
	Message     string
	SessionID   string
	ComplaintID *uuid.UUID
}

// Reply is the router's answer to a Request.
type Reply struct {
	SessionID   string         `json:"session_id"`
	Message     string         `json:"message"`
	Intent      Intent         `json:"intent"`
	Confidence  float64        `json:"confidence"`
	ComplaintID *uuid.UUID     `json:"complaint_id,omitempty"`
	Analysis    *triage.Result `json:"analysis,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

type session struct {
	mu         sync.Mutex
	id         string
	userID     string
	createdAt  time.Time
	lastActive time.Time
	turns      []Turn
	evicted    bool
}

func (s *session) snapshot() Session {
	return Session{
		ID:         s.id,
		UserID:     s.userID,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Turns:      slices.Clone(s.turns),
	}
}

// Router routes chat turns and owns session state. Turns for different
// sessions proceed in parallel; turns for the same session are serialized.
type Router struct {
	mu       sync.RWMutex
	sessions map[string]*session

	logger *slog.Logger
	now    func() time.Time
}

// NewRouter creates a Router with no sessions.
func NewRouter(logger *slog.Logger) *Router {
	return NewRouterWithClock(logger, time.Now)
}

// NewRouterWithClock is NewRouter with an injected clock.
func NewRouterWithClock(logger *slog.Logger, now func() time.Time) *Router {
	return &Router{
		sessions: make(map[string]*session),
		logger:   logger.With("system", "chat"),
		now:      now,
	}
}

// Route decides the intent for req, records the user and assistant turns
// in the session, and returns the reply. A session id owned by a different
// user is treated as unknown.
func (r *Router) Route(req Request) Reply {
	decision := Decide(req.Message, req.DisplayName)

	for {
		s := r.acquire(req.UserID, req.SessionID)

		s.mu.Lock()
		if s.evicted {
			s.mu.Unlock()
			req.SessionID = ""
			continue
		}

		now := r.now().UTC()
		s.turns = append(s.turns,
			Turn{
				Role:        RoleUser,
				Message:     req.Message,
				ComplaintID: req.ComplaintID,
				At:          now,
			},
			Turn{
				Role:        RoleAssistant,
				Message:     decision.Message,
				Intent:      decision.Intent,
				Confidence:  decision.Confidence,
				ComplaintID: req.ComplaintID,
				At:          now,
			},
		)
		s.lastActive = now
		id := s.id
		s.mu.Unlock()

		r.logger.Debug("turn routed", "session_id", id, "intent", decision.Intent)

		return Reply{
			SessionID:   id,
			Message:     decision.Message,
			Intent:      decision.Intent,
			Confidence:  decision.Confidence,
			ComplaintID: req.ComplaintID,
			Analysis:    decision.Analysis,
			Timestamp:   now,
		}
	}
}

// acquire returns the caller's session for id, creating one when id is
// empty, unknown, or owned by someone else. Only the index lock is held.
func (r *Router) acquire(userID, id string) *session {
	if id != "" {
		r.mu.RLock()
		s, ok := r.sessions[id]
		r.mu.RUnlock()
		if ok && s.userID == userID {
			return s
		}
	}

	now := r.now().UTC()
	s := &session{
		id:         uuid.NewString(),
		userID:     userID,
		createdAt:  now,
		lastActive: now,
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.logger.Info("session started", "session_id", s.id, "user_id", userID)
	return s
}

// Session returns a snapshot of the session with id.
func (r *Router) Session(id string) (Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), true
}

// Sessions summarizes userID's sessions, most recently active first.
func (r *Router) Sessions(userID string) []Summary {
	r.mu.RLock()
	owned := make([]*session, 0)
	for _, s := range r.sessions {
		if s.userID == userID {
			owned = append(owned, s)
		}
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(owned))
	for _, s := range owned {
		s.mu.Lock()
		out = append(out, Summary{
			ID:         s.id,
			TurnCount:  len(s.turns),
			CreatedAt:  s.createdAt,
			LastActive: s.lastActive,
		})
		s.mu.Unlock()
	}

	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.LastActive.Compare(a.LastActive); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of live sessions.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict removes sessions idle for longer than idle and returns how many
// were removed. A non-positive idle evicts nothing.
func (r *Router) Evict(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}

	cutoff := r.now().UTC().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		if s.lastActive.Before(cutoff) {
			s.evicted = true
			delete(r.sessions, id)
			removed++
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		r.logger.Info("sessions evicted", "count", removed, "remaining", len(r.sessions))
	}
	return removed
}
