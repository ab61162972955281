package complaints

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/auth"
	"github.com/JaimeStill/triage/pkg/pagination"
)

// System defines the public contract for complaint domain operations.
// Postgres and in-memory implementations share it.
type System interface {
	Handler(authz auth.Authorizer, maxBody int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Complaint], error)

	// Snapshot returns every complaint matching filters, oldest first.
	Snapshot(ctx context.Context, filters Filters) ([]Complaint, error)

	Find(ctx context.Context, id uuid.UUID) (*Complaint, error)
	Create(ctx context.Context, userID string, cmd CreateCommand) (*Complaint, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Complaint, error)

	// SetEscalation persists a new escalation level and update time. level
	// must be exactly one above the stored level.
	SetEscalation(ctx context.Context, id uuid.UUID, level int, at time.Time) (*Complaint, error)

	Analytics(ctx context.Context) (*Analytics, error)
}
