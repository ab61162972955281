// Package api assembles the API module with all domain systems, route
// registration, and the scheduled jobs those systems run.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/middleware"
	"github.com/JaimeStill/triage/pkg/module"
	"github.com/JaimeStill/triage/pkg/routes"
)

// Scheduled job names.
const (
	JobEscalationSweep = "escalation-sweep"
	JobChatEviction    = "chat-eviction"
)

// NewModule creates the API module with all domain handlers and middleware,
// and adds the escalation sweep and chat eviction jobs to the scheduler.
// Call it before infra.Start.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	groups := registerRoutes(mux, domain, cfg, runtime)
	for _, pattern := range routes.Patterns(groups...) {
		runtime.Logger.Debug("route registered", "pattern", pattern)
	}

	if err := scheduleJobs(cfg, runtime, domain); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		auth.Middleware(runtime.Verifier, cfg.Auth.Demo, runtime.Logger),
	)

	return m, nil
}

// SweepActor is the principal scheduled sweeps act as. It carries the
// configured admin roles so the sweep passes the same authorization check
// as a manual trigger.
func SweepActor(cfg *config.Config) auth.Principal {
	return auth.Principal{
		ID:    cfg.Escalation.Actor,
		Name:  cfg.Escalation.Actor,
		Roles: cfg.Auth.AdminRoles,
	}
}

func scheduleJobs(cfg *config.Config, runtime *Runtime, domain *Domain) error {
	sweep := domain.Escalation.Job(SweepActor(cfg), domain.Eligible)
	if err := runtime.Scheduler.Add(JobEscalationSweep, cfg.Escalation.Schedule, sweep); err != nil {
		return fmt.Errorf("schedule escalation sweep: %w", err)
	}

	evict := domain.Chat.EvictJob(cfg.Chat.IdleTimeoutDuration())
	if err := runtime.Scheduler.Add(JobChatEviction, cfg.Chat.EvictionSchedule, evict); err != nil {
		return fmt.Errorf("schedule chat eviction: %w", err)
	}

	return nil
}
