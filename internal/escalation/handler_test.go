package escalation_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/escalation"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/pkg/routes"
)

func serve(mux *http.ServeMux, p *auth.Principal, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	store := newStore()
	n := &mockNotifier{}
	m := newMachine(store, n)
	policy := urgentOrHigh()

	mux := http.NewServeMux()
	routes.Register(mux, escalation.NewHandler(m, policy.Eligibility(), discard()).Routes())

	urgent := seed(t, store, "critical outage")
	path := "/complaints/" + urgent.ID.String()

	tests := []struct {
		name   string
		p      *auth.Principal
		method string
		path   string
		status int
	}{
		{"escalate", &admin, "POST", path + "/escalate", http.StatusOK},
		{"escalate forbidden", &user, "POST", path + "/escalate", http.StatusForbidden},
		{"escalate anonymous", nil, "POST", path + "/escalate", http.StatusUnauthorized},
		{"escalate unknown", &admin, "POST", "/complaints/" + uuid.NewString() + "/escalate", http.StatusNotFound},
		{"escalate malformed id", &admin, "POST", "/complaints/abc/escalate", http.StatusBadRequest},
		{"notify", &admin, "POST", path + "/notify?type=escalated", http.StatusAccepted},
		{"notify bad kind", &admin, "POST", path + "/notify?type=carrier-pigeon", http.StatusBadRequest},
		{"notify missing kind", &admin, "POST", path + "/notify", http.StatusBadRequest},
		{"notify forbidden", &user, "POST", path + "/notify?type=created", http.StatusForbidden},
		{"sweep forbidden", &user, "POST", "/admin/auto-escalate", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, tt.p, tt.method, tt.path)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	t.Run("sweep", func(t *testing.T) {
		rec := serve(mux, &admin, "POST", "/admin/auto-escalate")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var res escalation.SweepResult
		if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Count != 1 || res.Escalated[0] != urgent.ID {
			t.Errorf("result = %+v", res)
		}
		if got := level(t, store, urgent.ID); got != 2 {
			t.Errorf("level = %d, want 2", got)
		}
	})
}

func TestHandlerNotifyQueueFull(t *testing.T) {
	store := newStore()
	m := newMachine(store, &mockNotifier{err: notifications.ErrQueueFull})

	mux := http.NewServeMux()
	routes.Register(mux, escalation.NewHandler(m, nil, discard()).Routes())

	c := seed(t, store, "anything")
	rec := serve(mux, &admin, "POST", "/complaints/"+c.ID.String()+"/notify?type=created")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
