package triage_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/triage/internal/triage"
	"github.com/JaimeStill/triage/pkg/routes"
)

func setupMux() *http.ServeMux {
	h := triage.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), 1<<20)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerClassify(t *testing.T) {
	mux := setupMux()

	body := bytes.NewBufferString(`{"title":"charge","description":"Critical: I was charged twice"}`)
	req := httptest.NewRequest("POST", "/triage/classify", body)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var got triage.Result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != triage.CategoryBilling || got.Priority != triage.PriorityUrgent {
		t.Errorf("result = %+v", got)
	}
	if len(got.Suggestions) != 6 {
		t.Errorf("suggestions = %d, want 6", len(got.Suggestions))
	}
}

func TestHandlerClassifyMalformed(t *testing.T) {
	mux := setupMux()

	req := httptest.NewRequest("POST", "/triage/classify", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerSuggest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantLen int
	}{
		{"valid", `{"category":"service","priority":"high"}`, http.StatusOK, 6},
		{"unknown priority", `{"category":"service","priority":"severe"}`, http.StatusUnprocessableEntity, 0},
		{"missing fields", `{}`, http.StatusBadRequest, 0},
		{"malformed", `not json`, http.StatusBadRequest, 0},
	}

	mux := setupMux()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/triage/suggest", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			var got triage.SuggestResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got.Suggestions) != tt.wantLen {
				t.Errorf("suggestions = %d, want %d", len(got.Suggestions), tt.wantLen)
			}
		})
	}
}
