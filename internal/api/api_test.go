package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/triage/internal/api"
	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/chat"
	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/escalation"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/module"
)

func newServer(t *testing.T, roles ...string) (*httptest.Server, *infrastructure.Infrastructure) {
	t.Helper()

	cfg := &config.Config{
		Auth: auth.Config{
			Demo: auth.Principal{ID: "demo_user_1", Name: "Dana", Roles: roles},
		},
		Escalation: escalation.Config{
			Policy: escalation.Policy{Priorities: []string{"low", "medium", "high", "urgent"}},
		},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	infra, err := infrastructure.NewWithOutput(cfg, io.Discard)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})

	return srv, infra
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestComplaintLifecycle(t *testing.T) {
	srv, _ := newServer(t, auth.RoleUser, auth.RoleAdmin)

	var created complaints.Complaint
	status := do(t, srv, http.MethodPost, "/api/complaints", complaints.CreateCommand{
		Title:       "Charged twice",
		Description: "I was charged twice on my invoice this month, please refund",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if created.UserID != "demo_user_1" || created.Category != "billing" {
		t.Errorf("created = %+v", created)
	}

	var found complaints.Complaint
	if status := do(t, srv, http.MethodGet, "/api/complaints/"+created.ID.String(), nil, &found); status != http.StatusOK {
		t.Fatalf("find status = %d", status)
	}

	var outcome escalation.Outcome
	path := "/api/complaints/" + created.ID.String() + "/escalate"
	if status := do(t, srv, http.MethodPost, path, nil, &outcome); status != http.StatusOK {
		t.Fatalf("escalate status = %d", status)
	}
	if outcome.Level != 1 {
		t.Errorf("level = %d, want 1", outcome.Level)
	}

	var sweep escalation.SweepResult
	if status := do(t, srv, http.MethodPost, "/api/admin/auto-escalate", nil, &sweep); status != http.StatusOK {
		t.Fatalf("sweep status = %d", status)
	}
	if sweep.Count != 1 || sweep.Escalated[0] != created.ID {
		t.Errorf("sweep = %+v", sweep)
	}

	var analytics complaints.Analytics
	if status := do(t, srv, http.MethodGet, "/api/admin/analytics", nil, &analytics); status != http.StatusOK {
		t.Fatalf("analytics status = %d", status)
	}
	if analytics.Total != 1 || analytics.Escalated != 1 || analytics.AverageEscalation != 2 {
		t.Errorf("analytics = %+v", analytics)
	}
}

func TestNonAdminForbidden(t *testing.T) {
	srv, _ := newServer(t, auth.RoleUser)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"sweep", http.MethodPost, "/api/admin/auto-escalate"},
		{"admin list", http.MethodGet, "/api/admin/complaints"},
		{"analytics", http.MethodGet, "/api/admin/analytics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := do(t, srv, tt.method, tt.path, nil, nil); status != http.StatusForbidden {
				t.Errorf("status = %d, want 403", status)
			}
		})
	}
}

func TestTriageAndChat(t *testing.T) {
	srv, _ := newServer(t, auth.RoleUser)

	var reply chat.Reply
	status := do(t, srv, http.MethodPost, "/api/chat/message", chat.MessageRequest{Message: "hello"}, &reply)
	if status != http.StatusOK {
		t.Fatalf("chat status = %d", status)
	}
	if reply.Intent != chat.IntentGreeting || reply.SessionID == "" {
		t.Errorf("reply = %+v", reply)
	}

	var result map[string]any
	status = do(t, srv, http.MethodPost, "/api/triage/classify", map[string]string{
		"description": "The app keeps crashing with an error when I log in",
	}, &result)
	if status != http.StatusOK {
		t.Fatalf("classify status = %d", status)
	}
	if result["category"] == "" {
		t.Errorf("result = %v", result)
	}
}

func TestScheduledJobs(t *testing.T) {
	_, infra := newServer(t, auth.RoleUser)

	// the sweep schedule is empty by default, leaving only chat eviction
	if got := infra.Scheduler.Len(); got != 1 {
		t.Errorf("scheduled jobs = %d, want 1", got)
	}
}

func TestSweepActor(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	actor := api.SweepActor(cfg)
	if actor.ID != "escalation-scheduler" || !actor.HasRole(auth.RoleAdmin) {
		t.Errorf("actor = %+v", actor)
	}
}
