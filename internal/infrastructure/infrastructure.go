// Package infrastructure provides core service initialization for application startup.
// It assembles the shared systems (logging, lifecycle, database, scheduling,
// notifications, and identity) that domain systems require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/pkg/database"
	"github.com/JaimeStill/triage/pkg/lifecycle"
	"github.com/JaimeStill/triage/pkg/schedule"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil when complaints are kept in memory. Verifier is nil in
// demo mode, where every request acts as the configured demo principal.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Scheduler  *schedule.Scheduler
	Notifier   *notifications.Dispatcher
	Verifier   auth.Verifier
	Authorizer auth.Authorizer
}

// New creates an Infrastructure from the application configuration, logging
// to stderr at the configured level.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with logs written to out.
// It initializes all systems but does not start them; call Start separately.
func NewWithOutput(cfg *config.Config, out io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level()}))

	infra := &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Scheduler:  schedule.New(logger),
		Authorizer: auth.NewRoleAuthorizer(cfg.Auth.AdminRoles...),
	}

	if cfg.UsesDatabase() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	// the dispatcher starts its worker, so it is built after every fallible step
	infra.Notifier = notifications.New(&cfg.Notifications, lc, logger)

	if cfg.Auth.Enabled() {
		infra.Verifier = auth.NewOIDCVerifier(lc.Context(), &cfg.Auth)
		logger.Info("token verification enabled", "issuer", cfg.Auth.Issuer)
	} else {
		logger.Warn("token verification disabled, acting as demo principal", "user_id", cfg.Auth.Demo.ID)
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Jobs must be added to the Scheduler before Start is called.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}

	i.Scheduler.Register(i.Lifecycle)
	return nil
}
