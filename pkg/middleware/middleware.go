// Package middleware provides HTTP middleware for request logging and CORS,
// plus an ordered stack to compose them.
package middleware

import "net/http"

// Middleware wraps an http.Handler.
type Middleware = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw Middleware)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack struct {
	items []Middleware
}

// New creates a System seeded with mws. The first middleware is outermost.
func New(mws ...Middleware) System {
	return &stack{items: compact(mws)}
}

func (s *stack) Use(fn Middleware) {
	s.items = append(s.items, fn)
}

func (s *stack) Len() int {
	return len(s.items)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.items) - 1; i >= 0; i-- {
		handler = s.items[i](handler)
	}
	return handler
}

func compact(mws []Middleware) []Middleware {
	items := make([]Middleware, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			items = append(items, mw)
		}
	}
	return items
}
