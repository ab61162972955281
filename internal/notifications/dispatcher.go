package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// ErrQueueFull is returned when the dispatcher cannot accept another event.
var ErrQueueFull = errors.New("notification queue full")

// ErrClosed is returned by Notify after the dispatcher has drained.
var ErrClosed = errors.New("notification dispatcher closed")

// Dispatcher is a Notifier that queues events and delivers them to a Sink
// from a single background worker. Notify never blocks on delivery.
type Dispatcher struct {
	sink    Sink
	queue   chan Event
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher with room for size pending events and
// starts its delivery worker. Each delivery is bounded by timeout. Callers
// must Close the dispatcher to stop the worker.
func NewDispatcher(sink Sink, size int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, size),
		timeout: timeout,
		logger:  logger.With("system", "notifications"),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues a notification request.
func (d *Dispatcher) Notify(_ context.Context, complaintID uuid.UUID, kind Kind) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	e := Event{ComplaintID: complaintID, Kind: kind, At: d.now().UTC()}
	select {
	case d.queue <- e:
		return nil
	default:
		d.logger.Warn("notification dropped", "complaint_id", complaintID, "kind", kind)
		return ErrQueueFull
	}
}

// Register adds a shutdown hook that stops intake and drains pending events.
func (d *Dispatcher) Register(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.Close()
	})
}

// Close stops intake and waits for queued events to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	d.logger.Info("notification dispatcher drained")
}

// Done is closed once every queued event has been delivered after Close.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e Event) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sink.Send(ctx, e); err != nil {
		d.logger.Error("notification delivery failed",
			"complaint_id", e.ComplaintID,
			"kind", e.Kind,
			"error", err,
		)
		return
	}

	d.logger.Debug("notification delivered", "complaint_id", e.ComplaintID, "kind", e.Kind)
}
