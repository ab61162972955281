package auth

import (
	"fmt"
	"os"
	"strings"
)

// Config holds token verification and demo identity settings.
// Verification is enabled when Issuer is set.
type Config struct {
	Issuer     string    `toml:"issuer"`
	JWKSURL    string    `toml:"jwks_url"`
	ClientID   string    `toml:"client_id"`
	RolesClaim string    `toml:"roles_claim"`
	AdminRoles []string  `toml:"admin_roles"`
	Demo       Principal `toml:"demo"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Issuer     string
	JWKSURL    string
	ClientID   string
	RolesClaim string
	AdminRoles string
}

// Enabled reports whether bearer tokens are verified.
func (c *Config) Enabled() bool {
	return c.Issuer != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.RolesClaim != "" {
		c.RolesClaim = overlay.RolesClaim
	}
	if overlay.AdminRoles != nil {
		c.AdminRoles = overlay.AdminRoles
	}
	if overlay.Demo.ID != "" {
		c.Demo = overlay.Demo
	}
}

func (c *Config) loadDefaults() {
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
	if len(c.AdminRoles) == 0 {
		c.AdminRoles = []string{RoleAdmin}
	}
	if c.Demo.ID == "" {
		c.Demo = Principal{
			ID:    "demo_user_1",
			Email: "demo@example.com",
			Name:  "Demo User",
			Roles: []string{RoleUser},
		}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.RolesClaim != "" {
		if v := os.Getenv(env.RolesClaim); v != "" {
			c.RolesClaim = v
		}
	}
	if env.AdminRoles != "" {
		if v := os.Getenv(env.AdminRoles); v != "" {
			roles := strings.Split(v, ",")
			c.AdminRoles = make([]string, 0, len(roles))
			for _, role := range roles {
				if trimmed := strings.TrimSpace(role); trimmed != "" {
					c.AdminRoles = append(c.AdminRoles, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.JWKSURL == "" {
		return fmt.Errorf("jwks_url required when issuer is set")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when issuer is set")
	}
	return nil
}
