// Package config loads the service configuration from TOML files and
// TRIAGE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/chat"
	"github.com/JaimeStill/triage/internal/escalation"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvTriageEnv             = "TRIAGE_ENV"
	EnvTriageStore           = "TRIAGE_STORE"
	EnvTriageLogLevel        = "TRIAGE_LOG_LEVEL"
	EnvTriageShutdownTimeout = "TRIAGE_SHUTDOWN_TIMEOUT"
	EnvTriageVersion         = "TRIAGE_VERSION"
)

// Complaint store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var databaseEnv = &database.Env{
	Host:            "TRIAGE_DB_HOST",
	Port:            "TRIAGE_DB_PORT",
	Name:            "TRIAGE_DB_NAME",
	User:            "TRIAGE_DB_USER",
	Password:        "TRIAGE_DB_PASSWORD",
	SSLMode:         "TRIAGE_DB_SSL_MODE",
	ApplicationName: "TRIAGE_DB_APPLICATION_NAME",
	MaxOpenConns:    "TRIAGE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "TRIAGE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "TRIAGE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "TRIAGE_DB_CONN_TIMEOUT",
}

// DatabaseEnv returns the TRIAGE_DB_* variable names for database settings.
func DatabaseEnv() *database.Env {
	return databaseEnv
}

var authEnv = &auth.Env{
	Issuer:     "TRIAGE_AUTH_ISSUER",
	JWKSURL:    "TRIAGE_AUTH_JWKS_URL",
	ClientID:   "TRIAGE_AUTH_CLIENT_ID",
	RolesClaim: "TRIAGE_AUTH_ROLES_CLAIM",
	AdminRoles: "TRIAGE_AUTH_ADMIN_ROLES",
}

var chatEnv = &chat.Env{
	EvictionSchedule: "TRIAGE_CHAT_EVICTION_SCHEDULE",
	IdleTimeout:      "TRIAGE_CHAT_IDLE_TIMEOUT",
	Origins:          "TRIAGE_CHAT_ORIGINS",
}

var escalationEnv = &escalation.Env{
	Schedule:         "TRIAGE_ESCALATION_SCHEDULE",
	Concurrency:      "TRIAGE_ESCALATION_CONCURRENCY",
	Actor:            "TRIAGE_ESCALATION_ACTOR",
	Priorities:       "TRIAGE_ESCALATION_PRIORITIES",
	ExcludedStatuses: "TRIAGE_ESCALATION_EXCLUDED_STATUSES",
	MinAge:           "TRIAGE_ESCALATION_MIN_AGE",
	MaxLevel:         "TRIAGE_ESCALATION_MAX_LEVEL",
}

var notificationsEnv = &notifications.Env{
	QueueSize:      "TRIAGE_NOTIFY_QUEUE_SIZE",
	Timeout:        "TRIAGE_NOTIFY_TIMEOUT",
	SlackToken:     "TRIAGE_SLACK_TOKEN",
	SlackChannelID: "TRIAGE_SLACK_CHANNEL_ID",
	SlackAPIURL:    "TRIAGE_SLACK_API_URL",
	KafkaBrokers:   "TRIAGE_KAFKA_BROKERS",
	KafkaTopic:     "TRIAGE_KAFKA_TOPIC",
}

// Config is the root configuration for the triage service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	API             APIConfig            `toml:"api"`
	Auth            auth.Config          `toml:"auth"`
	Chat            chat.Config          `toml:"chat"`
	Escalation      escalation.Config    `toml:"escalation"`
	Notifications   notifications.Config `toml:"notifications"`
	Store           string               `toml:"store"`
	LogLevel        string               `toml:"log_level"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the TRIAGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTriageEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	l.UnmarshalText([]byte(c.LogLevel))
	return l
}

// UsesDatabase reports whether complaints are persisted in Postgres.
func (c *Config) UsesDatabase() bool {
	return c.Store == StorePostgres
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Chat.Merge(&overlay.Chat)
	c.Escalation.Merge(&overlay.Escalation)
	c.Notifications.Merge(&overlay.Notifications)
}

// Finalize applies defaults, environment overrides, and validation to the
// root config and every section. The database section is only finalized
// for the postgres store.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.UsesDatabase() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Chat.Finalize(chatEnv); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := c.Escalation.Finalize(escalationEnv); err != nil {
		return fmt.Errorf("escalation: %w", err)
	}
	if err := c.Notifications.Finalize(notificationsEnv); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTriageStore); v != "" {
		c.Store = v
	}
	if v := os.Getenv(EnvTriageLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvTriageShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTriageVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	c.Store = strings.ToLower(c.Store)
	if c.Store != StoreMemory && c.Store != StorePostgres {
		return fmt.Errorf("invalid store %q: must be %s or %s", c.Store, StoreMemory, StorePostgres)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvTriageEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
