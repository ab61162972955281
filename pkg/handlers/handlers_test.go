package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/triage/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusCreated, map[string]int{"count": 2})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"count":2}` {
		t.Errorf("body = %s", body)
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"client", http.StatusNotFound, "level=WARN"},
		{"server", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			rec := httptest.NewRecorder()

			handlers.RespondError(rec, logger, tt.status, errors.New("boom"))

			if rec.Code != tt.status {
				t.Errorf("status = %d", rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != "boom" {
				t.Errorf("body = %v", body)
			}
			if !strings.Contains(logs.String(), tt.level) {
				t.Errorf("log = %q, want %s", logs.String(), tt.level)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Message string `json:"message"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hi"}`))
		got, err := handlers.DecodeJSON[payload](httptest.NewRecorder(), req, 0)
		if err != nil || got.Message != "hi" {
			t.Errorf("got %+v, err %v", got, err)
		}
	})

	t.Run("body limit", func(t *testing.T) {
		body := `{"message":"` + strings.Repeat("x", 64) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		_, err := handlers.DecodeJSON[payload](httptest.NewRecorder(), req, 16)

		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			t.Errorf("err = %v, want MaxBytesError", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("{")))
		if _, err := handlers.DecodeJSON[payload](httptest.NewRecorder(), req, 0); err == nil {
			t.Error("expected decode error")
		}
	})
}
