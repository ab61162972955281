package chat

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/triage/pkg/schedule"
)

// Config holds session eviction and WebSocket settings.
type Config struct {
	EvictionSchedule string   `toml:"eviction_schedule"`
	IdleTimeout      string   `toml:"idle_timeout"`
	Origins          []string `toml:"origins"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	EvictionSchedule string
	IdleTimeout      string
	Origins          string
}

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *Config) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
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
	if overlay.EvictionSchedule != "" {
		c.EvictionSchedule = overlay.EvictionSchedule
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
}

// EvictJob returns a scheduled job that evicts sessions idle longer than idle.
func (r *Router) EvictJob(idle time.Duration) schedule.Job {
	return func(context.Context) error {
		r.Evict(idle)
		return nil
	}
}

func (c *Config) loadDefaults() {
	if c.EvictionSchedule == "" {
		c.EvictionSchedule = "@every 5m"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "30m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.EvictionSchedule != "" {
		if v := os.Getenv(env.EvictionSchedule); v != "" {
			c.EvictionSchedule = v
		}
	}
	if env.IdleTimeout != "" {
		if v := os.Getenv(env.IdleTimeout); v != "" {
			c.IdleTimeout = v
		}
	}
	if env.Origins != "" {
		if v := os.Getenv(env.Origins); v != "" {
			origins := strings.Split(v, ",")
			c.Origins = make([]string, 0, len(origins))
			for _, origin := range origins {
				if trimmed := strings.TrimSpace(origin); trimmed != "" {
					c.Origins = append(c.Origins, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.IdleTimeout)
	if err != nil {
		return fmt.Errorf("invalid idle_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("idle_timeout must be positive")
	}
	return schedule.Validate(c.EvictionSchedule)
}
