package complaints

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/internal/notifications"
	"github.com/JaimeStill/triage/internal/triage"
	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

const insertComplaint = `
	INSERT INTO complaints(
		id, user_id, title, description,
		category, category_confidence, priority, priority_confidence,
		suggestions, status, escalation_level, tags, attachments,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id, user_id, title, description,
		category, category_confidence, priority, priority_confidence,
		suggestions, status, escalation_level, tags, attachments,
		created_at, updated_at`

const updateComplaint = `
	UPDATE complaints
	SET status = $2, category = $3, category_confidence = $4,
		priority = $5, priority_confidence = $6, suggestions = $7,
		tags = $8, updated_at = $9
	WHERE id = $1
	RETURNING id, user_id, title, description,
		category, category_confidence, priority, priority_confidence,
		suggestions, status, escalation_level, tags, attachments,
		created_at, updated_at`

const updateEscalation = `
	UPDATE complaints
	SET escalation_level = $2, updated_at = $3
	WHERE id = $1
	RETURNING id, user_id, title, description,
		category, category_confidence, priority, priority_confidence,
		suggestions, status, escalation_level, tags, attachments,
		created_at, updated_at`

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   triage.ErrInvariantViolation,
}

type repo struct {
	db         *sql.DB
	notifier   notifications.Notifier
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates a Postgres-backed complaint repository implementing System.
// A nil notifier disables complaint notifications.
func New(
	db *sql.DB,
	notifier notifications.Notifier,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		notifier:   notifier,
		logger:     logger.With("system", "complaints"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (r *repo) Handler(authz auth.Authorizer, maxBody int64) *Handler {
	return NewHandler(r, authz, r.logger, r.pagination, maxBody)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Complaint], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, searchFields...)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanComplaint)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Snapshot(ctx context.Context, filters Filters) ([]Complaint, error) {
	qb := query.NewBuilder(projection, query.SortField{Field: "CreatedAt"})
	filters.Apply(qb)

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanComplaint)
	if err != nil {
		return nil, fmt.Errorf("snapshot complaints: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanComplaint)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, userID string, cmd CreateCommand) (*Complaint, error) {
	c, err := cmd.Build(userID, r.now())
	if err != nil {
		return nil, err
	}

	args, err := insertArgs(c)
	if err != nil {
		return nil, err
	}

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Complaint, error) {
		return repository.QueryOne(ctx, tx, insertComplaint, args, scanComplaint)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("complaint created",
		"id", created.ID,
		"category", created.Category,
		"priority", created.Priority,
	)
	notify(ctx, r.notifier, r.logger, created.ID, notifications.KindCreated)

	return &created, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Complaint, error) {
	var previous Status

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Complaint, error) {
		q, args := query.NewBuilder(projection).BuildSingleForUpdate("ID", id)
		current, err := repository.QueryOne(ctx, tx, q, args, scanComplaint)
		if err != nil {
			return Complaint{}, err
		}
		previous = current.Status

		if err := cmd.Apply(&current, r.now()); err != nil {
			return Complaint{}, err
		}

		args, err = updateArgs(current)
		if err != nil {
			return Complaint{}, err
		}
		return repository.QueryOne(ctx, tx, updateComplaint, args, scanComplaint)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("complaint updated", "id", id, "status", updated.Status)
	if kind, ok := statusKind(previous, updated.Status); ok {
		notify(ctx, r.notifier, r.logger, id, kind)
	}

	return &updated, nil
}

func (r *repo) SetEscalation(ctx context.Context, id uuid.UUID, level int, at time.Time) (*Complaint, error) {
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Complaint, error) {
		q, args := query.NewBuilder(projection).BuildSingleForUpdate("ID", id)
		current, err := repository.QueryOne(ctx, tx, q, args, scanComplaint)
		if err != nil {
			return Complaint{}, err
		}
		if err := checkLevel(current, level); err != nil {
			return Complaint{}, err
		}
		return repository.QueryOne(ctx, tx, updateEscalation, []any{id, level, at.UTC()}, scanComplaint)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &c, nil
}

func (r *repo) Analytics(ctx context.Context) (*Analytics, error) {
	a := NewAnalytics()

	totals := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE c.escalation_level > 0),
			COUNT(*) FILTER (WHERE c.status NOT IN ('resolved', 'closed')),
			COALESCE(AVG(c.escalation_level), 0)::float8
		FROM ` + projection.Table()

	err := r.db.QueryRowContext(ctx, totals).Scan(&a.Total, &a.Escalated, &a.Open, &a.AverageEscalation)
	if err != nil {
		return nil, fmt.Errorf("complaint totals: %w", err)
	}

	groups := []struct {
		field string
		dst   map[string]int
	}{
		{"Status", a.ByStatus},
		{"Category", a.ByCategory},
		{"Priority", a.ByPriority},
	}

	for _, g := range groups {
		q, args := query.NewBuilder(projection).BuildGroupCount(g.field)
		counts, err := repository.QueryMany(ctx, r.db, q, args, scanGroupCount)
		if err != nil {
			return nil, fmt.Errorf("count complaints by %s: %w", g.field, err)
		}
		for _, gc := range counts {
			g.dst[gc.key] = gc.count
		}
	}

	return &a, nil
}

type groupCount struct {
	key   string
	count int
}

func scanGroupCount(s repository.Scanner) (groupCount, error) {
	var gc groupCount
	err := s.Scan(&gc.key, &gc.count)
	return gc, err
}

func insertArgs(c Complaint) ([]any, error) {
	suggestions, err := marshalList(c.Suggestions)
	if err != nil {
		return nil, err
	}
	tags, err := marshalList(c.Tags)
	if err != nil {
		return nil, err
	}
	attachments, err := marshalList(c.Attachments)
	if err != nil {
		return nil, err
	}

	return []any{
		c.ID,
		c.UserID,
		c.Title,
		c.Description,
		string(c.Category),
		c.CategoryConfidence,
		string(c.Priority),
		c.PriorityConfidence,
		suggestions,
		string(c.Status),
		c.EscalationLevel,
		tags,
		attachments,
		c.CreatedAt,
		c.UpdatedAt,
	}, nil
}

func updateArgs(c Complaint) ([]any, error) {
	suggestions, err := marshalList(c.Suggestions)
	if err != nil {
		return nil, err
	}
	tags, err := marshalList(c.Tags)
	if err != nil {
		return nil, err
	}

	return []any{
		c.ID,
		string(c.Status),
		string(c.Category),
		c.CategoryConfidence,
		string(c.Priority),
		c.PriorityConfidence,
		suggestions,
		tags,
		c.UpdatedAt,
	}, nil
}

// checkLevel admits only the level directly above the current one, so a
// writer that read a stale level cannot overwrite a concurrent escalation.
func checkLevel(c Complaint, level int) error {
	if level != c.EscalationLevel+1 {
		return fmt.Errorf(
			"%w: escalation level %d does not follow current %d",
			triage.ErrInvariantViolation, level, c.EscalationLevel,
		)
	}
	return nil
}

func statusKind(previous, current Status) (notifications.Kind, bool) {
	if previous == current {
		return "", false
	}
	if current == StatusResolved {
		return notifications.KindResolved, true
	}
	return notifications.KindStatusChanged, true
}

func notify(
	ctx context.Context,
	n notifications.Notifier,
	logger *slog.Logger,
	id uuid.UUID,
	kind notifications.Kind,
) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, id, kind); err != nil {
		logger.Warn("notification request failed", "id", id, "kind", kind, "error", err)
	}
}
