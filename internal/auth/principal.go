// Package auth identifies callers and answers authorization questions for
// the domain systems. Bearer tokens are verified as OIDC ID tokens; when no
// issuer is configured every request acts as a configured demo principal.
package auth

import (
	"context"
	"slices"
)

// Roles recognized by the default authorizer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller.
type Principal struct {
	ID    string   `json:"id" toml:"id"`
	Email string   `json:"email" toml:"email"`
	Name  string   `json:"name" toml:"name"`
	Roles []string `json:"roles" toml:"roles"`
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Authorizer decides whether a principal holds administrative rights.
type Authorizer interface {
	IsAdmin(ctx context.Context, p Principal) bool
}

type roleAuthorizer struct {
	roles []string
}

// NewRoleAuthorizer grants admin rights to principals holding any of roles.
// With no roles given, RoleAdmin is used.
func NewRoleAuthorizer(roles ...string) Authorizer {
	if len(roles) == 0 {
		roles = []string{RoleAdmin}
	}
	return &roleAuthorizer{roles: roles}
}

func (a *roleAuthorizer) IsAdmin(_ context.Context, p Principal) bool {
	for _, r := range a.roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Require returns the request principal or ErrUnauthorized.
func Require(ctx context.Context) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok || p.ID == "" {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}
