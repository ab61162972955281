package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier turns a raw bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Principal, error)
}

type oidcVerifier struct {
	verifier   *oidc.IDTokenVerifier
	rolesClaim string
}

// NewOIDCVerifier creates a Verifier for ID tokens issued by cfg.Issuer.
// Signing keys are fetched lazily from cfg.JWKSURL on first use.
func NewOIDCVerifier(ctx context.Context, cfg *Config) Verifier {
	keys := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
	return &oidcVerifier{
		verifier:   oidc.NewVerifier(cfg.Issuer, keys, &oidc.Config{ClientID: cfg.ClientID}),
		rolesClaim: cfg.RolesClaim,
	}
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (Principal, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Principal{}, fmt.Errorf("%w: decode claims: %v", ErrUnauthorized, err)
	}

	return PrincipalFromClaims(token.Subject, claims, v.rolesClaim), nil
}

// PrincipalFromClaims builds a Principal from decoded token claims.
// The roles claim may be a single string or a list of strings.
func PrincipalFromClaims(subject string, claims map[string]any, rolesClaim string) Principal {
	p := Principal{ID: subject}
	p.Email, _ = claims["email"].(string)
	p.Name, _ = claims["name"].(string)

	switch roles := claims[rolesClaim].(type) {
	case string:
		p.Roles = []string{roles}
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				p.Roles = append(p.Roles, s)
			}
		}
	}

	return p
}
