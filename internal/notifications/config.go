package notifications

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// Config holds dispatcher sizing and the optional external sinks.
// Events are always logged; Slack and Kafka are added when configured.
type Config struct {
	QueueSize int         `toml:"queue_size"`
	Timeout   string      `toml:"timeout"`
	Slack     SlackConfig `toml:"slack"`
	Kafka     KafkaConfig `toml:"kafka"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	QueueSize      string
	Timeout        string
	SlackToken     string
	SlackChannelID string
	SlackAPIURL    string
	KafkaBrokers   string
	KafkaTopic     string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
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
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Slack.Token != "" {
		c.Slack.Token = overlay.Slack.Token
	}
	if overlay.Slack.ChannelID != "" {
		c.Slack.ChannelID = overlay.Slack.ChannelID
	}
	if overlay.Slack.APIURL != "" {
		c.Slack.APIURL = overlay.Slack.APIURL
	}
	if overlay.Kafka.Brokers != nil {
		c.Kafka.Brokers = overlay.Kafka.Brokers
	}
	if overlay.Kafka.Topic != "" {
		c.Kafka.Topic = overlay.Kafka.Topic
	}
}

// New builds a Dispatcher fanning out to every configured sink and
// registers the shutdown hooks that drain it and close the sinks.
func New(cfg *Config, lc *lifecycle.Coordinator, logger *slog.Logger) *Dispatcher {
	sinks := []Sink{NewLogSink(logger)}
	var kafkaSink *KafkaSink

	if cfg.Slack.Enabled() {
		sinks = append(sinks, NewSlackSink(&cfg.Slack))
		logger.Info("slack notifications enabled", "channel", cfg.Slack.ChannelID)
	}
	if cfg.Kafka.Enabled() {
		kafkaSink = NewKafkaSink(&cfg.Kafka)
		sinks = append(sinks, kafkaSink)
		logger.Info("kafka notifications enabled", "topic", cfg.Kafka.Topic)
	}

	d := NewDispatcher(Fanout(sinks...), cfg.QueueSize, cfg.TimeoutDuration(), logger)
	d.Register(lc)
	if kafkaSink != nil {
		kafkaSink.Register(lc, d.Done())
	}
	return d
}

func (c *Config) loadDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.QueueSize != "" {
		if v := os.Getenv(env.QueueSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.QueueSize = n
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.SlackToken != "" {
		if v := os.Getenv(env.SlackToken); v != "" {
			c.Slack.Token = v
		}
	}
	if env.SlackChannelID != "" {
		if v := os.Getenv(env.SlackChannelID); v != "" {
			c.Slack.ChannelID = v
		}
	}
	if env.SlackAPIURL != "" {
		if v := os.Getenv(env.SlackAPIURL); v != "" {
			c.Slack.APIURL = v
		}
	}
	if env.KafkaBrokers != "" {
		if v := os.Getenv(env.KafkaBrokers); v != "" {
			brokers := strings.Split(v, ",")
			c.Kafka.Brokers = make([]string, 0, len(brokers))
			for _, b := range brokers {
				if trimmed := strings.TrimSpace(b); trimmed != "" {
					c.Kafka.Brokers = append(c.Kafka.Brokers, trimmed)
				}
			}
		}
	}
	if env.KafkaTopic != "" {
		if v := os.Getenv(env.KafkaTopic); v != "" {
			c.Kafka.Topic = v
		}
	}
}

func (c *Config) validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive")
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if (c.Slack.Token == "") != (c.Slack.ChannelID == "") {
		return fmt.Errorf("slack requires both token and channel_id")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic required when brokers are set")
	}
	return nil
}
