package notifications

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackConfig configures the Slack sink.
type SlackConfig struct {
	Token     string `toml:"token"`
	ChannelID string `toml:"channel_id"`
	APIURL    string `toml:"api_url"`
}

// Enabled reports whether enough settings are present to post messages.
func (c *SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type slackSink struct {
	client  *slack.Client
	channel string
}

// NewSlackSink returns a Sink that posts each event to a Slack channel.
func NewSlackSink(cfg *SlackConfig) Sink {
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &slackSink{
		client:  slack.New(cfg.Token, opts...),
		channel: cfg.ChannelID,
	}
}

func (s *slackSink) Send(ctx context.Context, e Event) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(e.Message(), false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}
