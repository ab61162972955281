package complaints

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/query"
)

type memory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Complaint

	notifier   notifications.Notifier
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// NewMemory creates an in-process complaint store implementing System.
// Contents are lost on restart.
func NewMemory(
	notifier notifications.Notifier,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return newMemory(notifier, logger, pagination, time.Now)
}

// NewMemoryWithClock is NewMemory with an injected clock.
func NewMemoryWithClock(
	notifier notifications.Notifier,
	logger *slog.Logger,
	pagination pagination.Config,
	now func() time.Time,
) System {
	return newMemory(notifier, logger, pagination, now)
}

func newMemory(
	notifier notifications.Notifier,
	logger *slog.Logger,
	cfg pagination.Config,
	now func() time.Time,
) *memory {
	return &memory{
		items:      make(map[uuid.UUID]Complaint),
		notifier:   notifier,
		logger:     logger.With("system", "complaints", "store", "memory"),
		pagination: cfg,
		now:        now,
	}
}

func (m *memory) Handler(authz auth.Authorizer, maxBody int64) *Handler {
	return NewHandler(m, authz, m.logger, m.pagination, maxBody)
}

func (m *memory) List(
	_ context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Complaint], error) {
	page.Normalize(m.pagination)

	sortFields := []query.SortField(page.Sort)
	if len(sortFields) == 0 {
		sortFields = []query.SortField{defaultSort}
	}

	m.mu.RLock()
	matched := make([]Complaint, 0, len(m.items))
	for _, c := range m.items {
		if filters.Match(c) && matchesSearch(c, page.Search) {
			matched = append(matched, clone(c))
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Complaint) int {
		return compareSorted(sortFields, a, b)
	})

	result := pagination.Paginate(matched, page)
	return &result, nil
}

func (m *memory) Snapshot(_ context.Context, filters Filters) ([]Complaint, error) {
	m.mu.RLock()
	items := make([]Complaint, 0, len(m.items))
	for _, c := range m.items {
		if filters.Match(c) {
			items = append(items, clone(c))
		}
	}
	m.mu.RUnlock()

	oldest := []query.SortField{{Field: "CreatedAt"}}
	slices.SortFunc(items, func(a, b Complaint) int {
		return compareSorted(oldest, a, b)
	})
	return items, nil
}

func (m *memory) Find(_ context.Context, id uuid.UUID) (*Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = clone(c)
	return &c, nil
}

func (m *memory) Create(ctx context.Context, userID string, cmd CreateCommand) (*Complaint, error) {
	c, err := cmd.Build(userID, m.now())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, exists := m.items[c.ID]; exists {
		m.mu.Unlock()
		return nil, ErrDuplicate
	}
	m.items[c.ID] = c
	m.mu.Unlock()

	m.logger.Info("complaint created", "id", c.ID, "category", c.Category, "priority", c.Priority)
	notify(ctx, m.notifier, m.logger, c.ID, notifications.KindCreated)

	c = clone(c)
	return &c, nil
}

func (m *memory) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Complaint, error) {
	m.mu.Lock()
	current, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	previous := current.Status
	if err := cmd.Apply(&current, m.now()); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.items[id] = current
	m.mu.Unlock()

	m.logger.Info("complaint updated", "id", id, "status", current.Status)
	if kind, ok := statusKind(previous, current.Status); ok {
		notify(ctx, m.notifier, m.logger, id, kind)
	}

	current = clone(current)
	return &current, nil
}

func (m *memory) SetEscalation(_ context.Context, id uuid.UUID, level int, at time.Time) (*Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := checkLevel(c, level); err != nil {
		return nil, err
	}

	c.EscalationLevel = level
	c.UpdatedAt = at.UTC()
	m.items[id] = c

	c = clone(c)
	return &c, nil
}

func (m *memory) Analytics(_ context.Context) (*Analytics, error) {
	a := NewAnalytics()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var levels int
	for _, c := range m.items {
		a.Total++
		a.ByStatus[string(c.Status)]++
		a.ByCategory[string(c.Category)]++
		a.ByPriority[string(c.Priority)]++
		if c.Status.Open() {
			a.Open++
		}
		if c.EscalationLevel > 0 {
			a.Escalated++
		}
		levels += c.EscalationLevel
	}

	if a.Total > 0 {
		a.AverageEscalation = float64(levels) / float64(a.Total)
	}
	return &a, nil
}

// clone detaches slice fields so callers cannot mutate stored state.
func clone(c Complaint) Complaint {
	c.Suggestions = slices.Clone(c.Suggestions)
	c.Tags = slices.Clone(c.Tags)
	c.Attachments = slices.Clone(c.Attachments)
	return c
}
