// Package escalation raises complaint escalation levels, one complaint at a
// time or as a policy-driven sweep. Every increment is a read-modify-write
// serialized per complaint id; unrelated complaints never contend.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/pkg/keylock"
	"github.com/JaimeStill/triage/pkg/schedule"
)

// Store is the slice of the complaint repository the machine depends on.
// complaints.System satisfies it.
type Store interface {
	Find(ctx context.Context, id uuid.UUID) (*complaints.Complaint, error)
	Snapshot(ctx context.Context, filters complaints.Filters) ([]complaints.Complaint, error)
	SetEscalation(ctx context.Context, id uuid.UUID, level int, at time.Time) (*complaints.Complaint, error)
}

// Outcome describes a single applied escalation.
type Outcome struct {
	ComplaintID   uuid.UUID             `json:"complaint_id"`
	PreviousLevel int                   `json:"previous_level"`
	Level         int                   `json:"escalation_level"`
	EscalatedAt   time.Time             `json:"escalated_at"`
	Complaint     *complaints.Complaint `json:"complaint"`
}

// SweepResult lists the complaints escalated by one sweep, in snapshot order.
type SweepResult struct {
	Escalated []uuid.UUID `json:"escalated"`
	Count     int         `json:"count"`
}

// Machine applies escalations.
type Machine struct {
	store       Store
	authz       auth.Authorizer
	notifier    notifications.Notifier
	locks       *keylock.Locker[uuid.UUID]
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

// New creates a Machine. concurrency bounds the parallel escalations of a
// sweep; values below one are treated as one. notifier may be nil.
func New(
	store Store,
	authz auth.Authorizer,
	notifier notifications.Notifier,
	logger *slog.Logger,
	concurrency int,
) *Machine {
	return NewWithClock(store, authz, notifier, logger, concurrency, time.Now)
}

// NewWithClock is New with an injected clock.
func NewWithClock(
	store Store,
	authz auth.Authorizer,
	notifier notifications.Notifier,
	logger *slog.Logger,
	concurrency int,
	now func() time.Time,
) *Machine {
	return &Machine{
		store:       store,
		authz:       authz,
		notifier:    notifier,
		locks:       keylock.New[uuid.UUID](),
		logger:      logger.With("system", "escalation"),
		concurrency: max(concurrency, 1),
		now:         now,
	}
}

// Escalate raises the complaint's level by exactly one and stamps its
// update time. An unknown id returns complaints.ErrNotFound and changes
// nothing. Escalate is not idempotent.
func (m *Machine) Escalate(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Outcome, error) {
	if err := m.authorize(ctx, actor); err != nil {
		return nil, err
	}

	var (
		o   *Outcome
		err error
	)
	m.locks.With(id, func() {
		o, err = m.escalate(ctx, id, nil)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("complaint escalated",
		"id", id,
		"level", o.Level,
		"actor", actor.ID,
	)
	m.notify(ctx, id, notifications.KindEscalated)
	return o, nil
}

// Sweep escalates every complaint in the current set that eligible accepts.
// Each complaint is escalated at most once per call, and eligibility is
// re-evaluated under the complaint's lock against its latest state. The
// returned ids follow snapshot order. On a store failure the ids escalated
// so far are returned with the error.
func (m *Machine) Sweep(ctx context.Context, actor auth.Principal, eligible Eligibility) ([]uuid.UUID, error) {
	if err := m.authorize(ctx, actor); err != nil {
		return nil, err
	}

	escalated := make([]uuid.UUID, 0)
	if eligible == nil {
		return escalated, nil
	}

	snapshot, err := m.store.Snapshot(ctx, complaints.Filters{})
	if err != nil {
		return nil, fmt.Errorf("snapshot complaints: %w", err)
	}

	at := m.now()
	seen := make(map[uuid.UUID]bool, len(snapshot))
	candidates := make([]uuid.UUID, 0)
	for _, c := range snapshot {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if eligible(c, at) {
			candidates = append(candidates, c.ID)
		}
	}

	done := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, id := range candidates {
		g.Go(func() error {
			var (
				o   *Outcome
				err error
			)
			m.locks.With(id, func() {
				o, err = m.escalate(gctx, id, func(c complaints.Complaint) bool {
					return eligible(c, at)
				})
			})

			if errors.Is(err, complaints.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if o == nil {
				return nil
			}

			done[i] = true
			m.notify(gctx, id, notifications.KindEscalated)
			return nil
		})
	}

	err = g.Wait()

	for i, id := range candidates {
		if done[i] {
			escalated = append(escalated, id)
		}
	}

	m.logger.Info("sweep complete",
		"actor", actor.ID,
		"candidates", len(candidates),
		"escalated", len(escalated),
	)

	if err != nil {
		return escalated, fmt.Errorf("sweep: %w", err)
	}
	return escalated, nil
}

// Job adapts Sweep to a scheduled job acting as actor.
func (m *Machine) Job(actor auth.Principal, eligible Eligibility) schedule.Job {
	return func(ctx context.Context) error {
		_, err := m.Sweep(ctx, actor, eligible)
		return err
	}
}

// Notify sends a notification of kind for an existing complaint. Unlike
// the notifications emitted by escalation, a delivery failure is returned.
func (m *Machine) Notify(ctx context.Context, actor auth.Principal, id uuid.UUID, kind notifications.Kind) error {
	if err := m.authorize(ctx, actor); err != nil {
		return err
	}

	if _, err := m.store.Find(ctx, id); err != nil {
		return err
	}

	if m.notifier == nil {
		return fmt.Errorf("%w: no notifier configured", notifications.ErrClosed)
	}
	if err := m.notifier.Notify(ctx, id, kind); err != nil {
		return fmt.Errorf("notify %s: %w", kind, err)
	}
	return nil
}

func (m *Machine) authorize(ctx context.Context, actor auth.Principal) error {
	if actor.ID == "" {
		return auth.ErrUnauthorized
	}
	if m.authz == nil || !m.authz.IsAdmin(ctx, actor) {
		return auth.ErrForbidden
	}
	return nil
}

// escalate performs the read-modify-write. The caller holds the id's lock.
// A nil outcome with a nil error means recheck rejected the complaint.
func (m *Machine) escalate(ctx context.Context, id uuid.UUID, recheck func(complaints.Complaint) bool) (*Outcome, error) {
	current, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if recheck != nil && !recheck(*current) {
		return nil, nil
	}

	at := m.now().UTC()
	updated, err := m.store.SetEscalation(ctx, id, current.EscalationLevel+1, at)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		ComplaintID:   id,
		PreviousLevel: current.EscalationLevel,
		Level:         updated.EscalationLevel,
		EscalatedAt:   at,
		Complaint:     updated,
	}, nil
}

func (m *Machine) notify(ctx context.Context, id uuid.UUID, kind notifications.Kind) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, id, kind); err != nil {
		m.logger.Warn("notification failed", "id", id, "kind", kind, "error", err)
	}
}
