// Package notifications delivers complaint notification requests to
// external channels. Delivery is fire-and-forget from the caller's point of
// view: Dispatcher queues requests and sinks deliver them in the background.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Kind names the event a notification reports.
type Kind string

// Notification kinds.
const (
	KindCreated       Kind = "created"
	KindEscalated     Kind = "escalated"
	KindStatusChanged Kind = "status_changed"
	KindResolved      Kind = "resolved"
)

var kinds = []Kind{
	KindCreated,
	KindEscalated,
	KindStatusChanged,
	KindResolved,
}

// ErrInvalidKind is returned for unrecognized notification kinds.
var ErrInvalidKind = errors.New("unknown notification kind")

// Kinds returns the recognized notification kinds.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// ParseKind validates s as a known notification kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Event is the payload delivered to sinks.
type Event struct {
	ComplaintID uuid.UUID `json:"complaint_id"`
	Kind        Kind      `json:"kind"`
	At          time.Time `json:"at"`
}

// Message renders the event as a human-readable line.
func (e Event) Message() string {
	return fmt.Sprintf("Complaint %s %s at %s", e.ComplaintID, e.Kind, e.At.Format(time.RFC3339))
}

// JSON renders the event as a JSON document.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier accepts notification requests.
type Notifier interface {
	Notify(ctx context.Context, complaintID uuid.UUID, kind Kind) error
}

// Sink delivers a single event to an external channel.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type logSink struct {
	logger *slog.Logger
}

// NewLogSink returns a Sink that records events in the structured log.
func NewLogSink(logger *slog.Logger) Sink {
	return &logSink{logger: logger.With("sink", "log")}
}

func (s *logSink) Send(_ context.Context, e Event) error {
	s.logger.Info("notification",
		"complaint_id", e.ComplaintID,
		"kind", e.Kind,
		"at", e.At,
	)
	return nil
}

type multiSink []Sink

// Fanout returns a Sink that delivers every event to each sink in turn and
// joins their errors.
func Fanout(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Send(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
