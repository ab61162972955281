package chat_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JaimeStill/triage/internal/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// manualClock returns a clock that only moves when advanced.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *manualClock {
	return &manualClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestRouteStartsSessions(t *testing.T) {
	r := chat.NewRouter(discard())

	a := r.Route(chat.Request{UserID: "alice", Message: "hello"})
	b := r.Route(chat.Request{UserID: "alice", Message: "hello"})

	if a.SessionID == "" || a.SessionID == b.SessionID {
		t.Fatalf("session ids %q and %q should be distinct and non-empty", a.SessionID, b.SessionID)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if a.Intent != chat.IntentGreeting || a.Confidence != 0.9 {
		t.Errorf("reply = %s %v", a.Intent, a.Confidence)
	}
}

func TestRouteContinuesSession(t *testing.T) {
	r := chat.NewRouter(discard())

	first := r.Route(chat.Request{UserID: "alice", Message: "hello"})
	second := r.Route(chat.Request{UserID: "alice", Message: "billing", SessionID: first.SessionID})

	if second.SessionID != first.SessionID {
		t.Fatalf("continued session = %q, want %q", second.SessionID, first.SessionID)
	}

	s, ok := r.Session(first.SessionID)
	if !ok {
		t.Fatal("session not found")
	}
	if len(s.Turns) != 4 {
		t.Fatalf("turns = %d, want 4", len(s.Turns))
	}

	want := []struct {
		role   chat.Role
		intent chat.Intent
	}{
		{chat.RoleUser, ""},
		{chat.RoleAssistant, chat.IntentGreeting},
		{chat.RoleUser, ""},
		{chat.RoleAssistant, chat.IntentBillingIssue},
	}
	for i, w := range want {
		if s.Turns[i].Role != w.role || s.Turns[i].Intent != w.intent {
			t.Errorf("turn %d = %s %s, want %s %s", i, s.Turns[i].Role, s.Turns[i].Intent, w.role, w.intent)
		}
	}
	if s.Turns[2].Message != "billing" {
		t.Errorf("user turn message = %q", s.Turns[2].Message)
	}
}

func TestRouteUnknownSessionStartsNew(t *testing.T) {
	r := chat.NewRouter(discard())

	reply := r.Route(chat.Request{UserID: "alice", Message: "hi", SessionID: "missing"})
	if reply.SessionID == "missing" {
		t.Error("unknown session id should not be adopted")
	}
	if _, ok := r.Session(reply.SessionID); !ok {
		t.Error("new session not recorded")
	}
}

func TestRouteForeignSessionStartsNew(t *testing.T) {
	r := chat.NewRouter(discard())

	alice := r.Route(chat.Request{UserID: "alice", Message: "hi"})
	bob := r.Route(chat.Request{UserID: "bob", Message: "hi", SessionID: alice.SessionID})

	if bob.SessionID == alice.SessionID {
		t.Fatal("bob continued alice's session")
	}

	s, _ := r.Session(alice.SessionID)
	if len(s.Turns) != 2 {
		t.Errorf("alice's session has %d turns, want 2", len(s.Turns))
	}
}

func TestRouteConcurrentSameSession(t *testing.T) {
	r := chat.NewRouter(discard())
	seed := r.Route(chat.Request{UserID: "alice", Message: "hi"})

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			r.Route(chat.Request{UserID: "alice", Message: "status", SessionID: seed.SessionID})
		})
	}
	wg.Wait()

	s, _ := r.Session(seed.SessionID)
	if len(s.Turns) != 2+2*n {
		t.Fatalf("turns = %d, want %d", len(s.Turns), 2+2*n)
	}
	for i := 0; i < len(s.Turns); i += 2 {
		if s.Turns[i].Role != chat.RoleUser || s.Turns[i+1].Role != chat.RoleAssistant {
			t.Fatalf("turns %d and %d are not a user/assistant pair", i, i+1)
		}
	}
}

func TestRouteConcurrentDistinctSessions(t *testing.T) {
	r := chat.NewRouter(discard())

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			ids[i] = r.Route(chat.Request{UserID: "alice", Message: "hi"}).SessionID
		})
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
	if r.Len() != n {
		t.Errorf("Len() = %d, want %d", r.Len(), n)
	}
}

func TestSessionsSummarizesCaller(t *testing.T) {
	clock := newClock()
	r := chat.NewRouterWithClock(discard(), clock.now)

	older := r.Route(chat.Request{UserID: "alice", Message: "hi"})
	clock.advance(time.Minute)
	newer := r.Route(chat.Request{UserID: "alice", Message: "hi"})
	clock.advance(time.Minute)
	r.Route(chat.Request{UserID: "bob", Message: "hi"})

	got := r.Sessions("alice")
	if len(got) != 2 {
		t.Fatalf("sessions = %d, want 2", len(got))
	}
	if got[0].ID != newer.SessionID || got[1].ID != older.SessionID {
		t.Errorf("order = [%s %s], want most recent first", got[0].ID, got[1].ID)
	}
	if got[0].TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", got[0].TurnCount)
	}

	if len(r.Sessions("carol")) != 0 {
		t.Error("carol should have no sessions")
	}
}

func TestEvict(t *testing.T) {
	clock := newClock()
	r := chat.NewRouterWithClock(discard(), clock.now)

	stale := r.Route(chat.Request{UserID: "alice", Message: "hi"})
	clock.advance(30 * time.Minute)
	fresh := r.Route(chat.Request{UserID: "alice", Message: "hi"})
	clock.advance(10 * time.Minute)

	if n := r.Evict(0); n != 0 {
		t.Errorf("Evict(0) = %d, want 0", n)
	}

	if n := r.Evict(20 * time.Minute); n != 1 {
		t.Fatalf("Evict = %d, want 1", n)
	}
	if _, ok := r.Session(stale.SessionID); ok {
		t.Error("stale session survived eviction")
	}
	if _, ok := r.Session(fresh.SessionID); !ok {
		t.Error("fresh session was evicted")
	}

	reply := r.Route(chat.Request{UserID: "alice", Message: "hi", SessionID: stale.SessionID})
	if reply.SessionID == stale.SessionID {
		t.Error("evicted session id was reused")
	}
}

func TestEvictJob(t *testing.T) {
	clock := newClock()
	r := chat.NewRouterWithClock(discard(), clock.now)
	r.Route(chat.Request{UserID: "alice", Message: "hi"})
	clock.advance(time.Hour)

	if err := r.EvictJob(30*time.Minute)(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     chat.Config
		wantErr bool
	}{
		{"defaults", chat.Config{}, false},
		{"custom", chat.Config{EvictionSchedule: "*/10 * * * *", IdleTimeout: "1h"}, false},
		{"bad idle", chat.Config{IdleTimeout: "forever"}, true},
		{"negative idle", chat.Config{IdleTimeout: "-5m"}, true},
		{"bad schedule", chat.Config{EvictionSchedule: "sometimes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cfg := chat.Config{}
	cfg.Finalize(nil)
	if cfg.IdleTimeoutDuration() != 30*time.Minute || cfg.EvictionSchedule != "@every 5m" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestRouteCapsAnalysisSuggestions(t *testing.T) {
	r := chat.NewRouter(discard())

	reply := r.Route(chat.Request{
		UserID:  "u",
		Message: "critical billing problem, payment refund not working",
	})

	if reply.Intent != chat.IntentComplaintAnalysis || reply.Analysis == nil {
		t.Fatalf("reply = %+v", reply)
	}
	if got := len(reply.Analysis.Suggestions); got != chat.MaxSuggestions {
		t.Errorf("analysis carries %d suggestions, want %d", got, chat.MaxSuggestions)
	}
}
