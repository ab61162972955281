package module_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/triage/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"empty", ""},
		{"no leading slash", "api"},
		{"nested path", "/api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected panic for invalid prefix")
				}
			}()
			module.New(tt.prefix, http.NewServeMux())
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"nested", "/api/complaints/42", "/complaints/42"},
		{"root", "/api", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received string
			m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				received = r.URL.Path
			}))

			m.Serve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
			if received != tt.want {
				t.Errorf("path = %s, want %s", received, tt.want)
			}
		})
	}
}

func TestModuleMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	m := module.New("/api", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	m.Use(tag("cors"), tag("logger"))
	m.Use(tag("auth"))

	m.Serve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))
	if !slices.Equal(order, []string{"cors", "logger", "auth"}) {
		t.Errorf("order = %v", order)
	}
}

func TestRouterDispatch(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("GET /complaints", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", api))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"module", "/api/complaints", http.StatusAccepted},
		{"trailing slash", "/api/complaints/", http.StatusAccepted},
		{"native", "/healthz", http.StatusNoContent},
		{"unmatched", "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if got := router.Prefixes(); !slices.Equal(got, []string{"/api"}) {
		t.Errorf("Prefixes() = %v", got)
	}
}
