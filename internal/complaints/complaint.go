// Package complaints implements the complaint domain. It provides types,
// data access, and business logic for complaint intake with automatic
// triage, owner and admin views, status updates, and escalation state
// persistence.
package complaints

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/triage"
)

// Status is a complaint lifecycle tag.
type Status string

// Complaint statuses. New complaints start as StatusRegistered.
const (
	StatusRegistered Status = "registered"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var statuses = []Status{
	StatusRegistered,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

// Statuses returns the recognized statuses in lifecycle order.
func Statuses() []Status {
	return slices.Clone(statuses)
}

// ParseStatus validates s as a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(statuses, st) {
		return "", fmt.Errorf("%w: unknown status %q", triage.ErrInvariantViolation, s)
	}
	return st, nil
}

// Open reports whether the complaint still awaits resolution.
func (s Status) Open() bool {
	return s != StatusResolved && s != StatusClosed
}

// Complaint is a registered complaint together with its triage outcome and
// escalation state.
type Complaint struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             string          `json:"user_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           triage.Category `json:"category"`
	CategoryConfidence float64         `json:"category_confidence"`
	Priority           triage.Priority `json:"priority"`
	PriorityConfidence float64         `json:"priority_confidence"`
	Suggestions        []string        `json:"suggestions"`
	Status             Status          `json:"status"`
	EscalationLevel    int             `json:"escalation_level"`
	Tags               []string        `json:"tags"`
	Attachments        []string        `json:"attachments"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Age returns how long the complaint has existed as of now.
func (c Complaint) Age(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

// OwnedBy reports whether userID submitted the complaint.
func (c Complaint) OwnedBy(userID string) bool {
	return c.UserID == userID
}

// Triage returns the triage fields of the complaint.
func (c Complaint) Triage() triage.Result {
	return triage.Result{
		Category:           c.Category,
		CategoryConfidence: c.CategoryConfidence,
		Priority:           c.Priority,
		PriorityConfidence: c.PriorityConfidence,
		Suggestions:        c.Suggestions,
	}
}

// CreateCommand carries a new complaint submission. Category and Priority
// are optional submitter overrides of the triage outcome.
type CreateCommand struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    *string  `json:"category,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// Build assesses the submission and returns the complaint to store.
// Title and description are required.
func (cmd CreateCommand) Build(userID string, now time.Time) (Complaint, error) {
	title := strings.TrimSpace(cmd.Title)
	description := strings.TrimSpace(cmd.Description)

	if userID == "" {
		return Complaint{}, fmt.Errorf("%w: user id required", triage.ErrValidation)
	}
	if title == "" {
		return Complaint{}, fmt.Errorf("%w: title required", triage.ErrValidation)
	}
	if description == "" {
		return Complaint{}, fmt.Errorf("%w: description required", triage.ErrValidation)
	}

	result, err := triage.Assess(title, description, cmd.Category, cmd.Priority)
	if err != nil {
		return Complaint{}, err
	}

	now = now.UTC()
	return Complaint{
		ID:                 uuid.New(),
		UserID:             userID,
		Title:              title,
		Description:        description,
		Category:           result.Category,
		CategoryConfidence: result.CategoryConfidence,
		Priority:           result.Priority,
		PriorityConfidence: result.PriorityConfidence,
		Suggestions:        result.Suggestions,
		Status:             StatusRegistered,
		Tags:               orEmpty(cmd.Tags),
		Attachments:        orEmpty(cmd.Attachments),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// UpdateCommand carries a partial update. Nil fields are left unchanged.
// Description is immutable after creation.
type UpdateCommand struct {
	Status   *string  `json:"status,omitempty"`
	Category *string  `json:"category,omitempty"`
	Priority *string  `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Empty reports whether the command changes nothing.
func (cmd UpdateCommand) Empty() bool {
	return cmd.Status == nil && cmd.Category == nil && cmd.Priority == nil && cmd.Tags == nil
}

// Apply validates the command and applies it to c. An explicitly set
// category or priority takes the explicit confidence and suggestions are
// regenerated from the resulting pair.
func (cmd UpdateCommand) Apply(c *Complaint, now time.Time) error {
	next := *c

	if cmd.Status != nil {
		st, err := ParseStatus(*cmd.Status)
		if err != nil {
			return err
		}
		next.Status = st
	}

	retriage := false
	if cmd.Category != nil {
		cat, err := triage.ParseCategory(*cmd.Category)
		if err != nil {
			return err
		}
		next.Category = cat
		next.CategoryConfidence = triage.ExplicitConfidence
		retriage = true
	}
	if cmd.Priority != nil {
		pri, err := triage.ParsePriority(*cmd.Priority)
		if err != nil {
			return err
		}
		next.Priority = pri
		next.PriorityConfidence = triage.ExplicitConfidence
		retriage = true
	}
	if retriage {
		next.Suggestions = triage.Suggest(next.Category, next.Priority)
	}

	if cmd.Tags != nil {
		next.Tags = slices.Clone(cmd.Tags)
	}

	next.UpdatedAt = now.UTC()
	*c = next
	return nil
}

// Analytics summarizes the complaint population.
type Analytics struct {
	Total             int            `json:"total"`
	Open              int            `json:"open"`
	Escalated         int            `json:"escalated"`
	AverageEscalation float64        `json:"average_escalation"`
	ByStatus          map[string]int `json:"by_status"`
	ByCategory        map[string]int `json:"by_category"`
	ByPriority        map[string]int `json:"by_priority"`
}

// NewAnalytics returns an empty summary with every known status, category,
// and priority present at zero.
func NewAnalytics() Analytics {
	a := Analytics{
		ByStatus:   make(map[string]int, len(statuses)),
		ByCategory: make(map[string]int),
		ByPriority: make(map[string]int),
	}
	for _, s := range statuses {
		a.ByStatus[string(s)] = 0
	}
	for _, c := range triage.Categories() {
		a.ByCategory[string(c)] = 0
	}
	for _, p := range triage.Priorities() {
		a.ByPriority[string(p)] = 0
	}
	return a
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
