package escalation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/triage"
	"github.com/JaimeStill/triage/pkg/schedule"
)

// Eligibility decides whether a complaint should be escalated by a sweep
// running at now.
type Eligibility func(c complaints.Complaint, now time.Time) bool

// Policy is the configurable sweep eligibility. A complaint is eligible when
// its priority is listed, its status is not excluded, it is at least MinAge
// old, and, when MaxLevel is positive, its level is below MaxLevel.
// An empty Priorities list makes nothing eligible.
type Policy struct {
	Priorities       []string `toml:"priorities"`
	ExcludedStatuses []string `toml:"excluded_statuses"`
	MinAge           string   `toml:"min_age"`
	MaxLevel         int      `toml:"max_level"`
}

// MinAgeDuration returns MinAge as a time.Duration.
func (p *Policy) MinAgeDuration() time.Duration {
	d, _ := time.ParseDuration(p.MinAge)
	return d
}

// Eligibility compiles the policy into a predicate.
func (p *Policy) Eligibility() Eligibility {
	priorities := slices.Clone(p.Priorities)
	excluded := slices.Clone(p.ExcludedStatuses)
	minAge := p.MinAgeDuration()
	maxLevel := p.MaxLevel

	return func(c complaints.Complaint, now time.Time) bool {
		if !slices.Contains(priorities, string(c.Priority)) {
			return false
		}
		if slices.Contains(excluded, string(c.Status)) {
			return false
		}
		if c.Age(now) < minAge {
			return false
		}
		if maxLevel > 0 && c.EscalationLevel >= maxLevel {
			return false
		}
		return true
	}
}

func (p *Policy) validate() error {
	for _, v := range p.Priorities {
		if _, err := triage.ParsePriority(v); err != nil {
			return fmt.Errorf("policy priorities: %w", err)
		}
	}
	for _, v := range p.ExcludedStatuses {
		if _, err := complaints.ParseStatus(v); err != nil {
			return fmt.Errorf("policy excluded_statuses: %w", err)
		}
	}
	if p.MinAge != "" {
		d, err := time.ParseDuration(p.MinAge)
		if err != nil {
			return fmt.Errorf("invalid policy min_age: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("policy min_age must not be negative")
		}
	}
	if p.MaxLevel < 0 {
		return fmt.Errorf("policy max_level must not be negative")
	}
	return nil
}

// Config holds the sweep schedule, its parallelism, and its policy.
// An empty Schedule disables the scheduled sweep; the admin endpoint
// remains available.
type Config struct {
	Schedule    string `toml:"schedule"`
	Concurrency int    `toml:"concurrency"`
	Actor       string `toml:"actor"`
	Policy      Policy `toml:"policy"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Schedule         string
	Concurrency      string
	Actor            string
	Priorities       string
	ExcludedStatuses string
	MinAge           string
	MaxLevel         string
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
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.Actor != "" {
		c.Actor = overlay.Actor
	}
	if overlay.Policy.Priorities != nil {
		c.Policy.Priorities = overlay.Policy.Priorities
	}
	if overlay.Policy.ExcludedStatuses != nil {
		c.Policy.ExcludedStatuses = overlay.Policy.ExcludedStatuses
	}
	if overlay.Policy.MinAge != "" {
		c.Policy.MinAge = overlay.Policy.MinAge
	}
	if overlay.Policy.MaxLevel != 0 {
		c.Policy.MaxLevel = overlay.Policy.MaxLevel
	}
}

func (c *Config) loadDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Actor == "" {
		c.Actor = "escalation-scheduler"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Schedule != "" {
		if v := os.Getenv(env.Schedule); v != "" {
			c.Schedule = v
		}
	}
	if env.Concurrency != "" {
		if v := os.Getenv(env.Concurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Concurrency = n
			}
		}
	}
	if env.Actor != "" {
		if v := os.Getenv(env.Actor); v != "" {
			c.Actor = v
		}
	}
	if env.Priorities != "" {
		if v := os.Getenv(env.Priorities); v != "" {
			c.Policy.Priorities = splitList(v)
		}
	}
	if env.ExcludedStatuses != "" {
		if v := os.Getenv(env.ExcludedStatuses); v != "" {
			c.Policy.ExcludedStatuses = splitList(v)
		}
	}
	if env.MinAge != "" {
		if v := os.Getenv(env.MinAge); v != "" {
			c.Policy.MinAge = v
		}
	}
	if env.MaxLevel != "" {
		if v := os.Getenv(env.MaxLevel); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Policy.MaxLevel = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Schedule != "" {
		if err := schedule.Validate(c.Schedule); err != nil {
			return err
		}
	}
	return c.Policy.validate()
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
