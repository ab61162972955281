package notifications

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// KafkaConfig configures the Kafka sink.
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// Enabled reports whether brokers and a topic are configured.
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// KafkaSink publishes events as JSON messages keyed by complaint id, so
// events for the same complaint land on the same partition.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a KafkaSink for cfg.
func NewKafkaSink(cfg *KafkaConfig) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Send publishes e.
func (s *KafkaSink) Send(ctx context.Context, e Event) error {
	data, err := e.JSON()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.ComplaintID.String()),
		Value: data,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Register closes the writer during shutdown. Register it after the
// dispatcher so the queue drains before the writer closes.
func (s *KafkaSink) Register(lc *lifecycle.Coordinator, after <-chan struct{}) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if after != nil {
			<-after
		}
		s.writer.Close()
	})
}
