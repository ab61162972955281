package complaints

import (
	"cmp"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "complaints", "c").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("title", "Title").
	Project("description", "Description").
	Project("category", "Category").
	Project("category_confidence", "CategoryConfidence").
	Project("priority", "Priority").
	Project("priority_confidence", "PriorityConfidence").
	Project("suggestions", "Suggestions").
	Project("status", "Status").
	Project("escalation_level", "EscalationLevel").
	Project("tags", "Tags").
	Project("attachments", "Attachments").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var searchFields = []string{"Title", "Description"}

// Filters contains optional filtering criteria for complaint queries.
// Nil fields are ignored. UserID, Status, Category, and Priority use exact
// matching. CreatedBefore and BelowLevel are exclusive upper bounds.
type Filters struct {
	UserID        *string    `json:"user_id,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	BelowLevel    *int       `json:"below_level,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UserID", f.UserID).
		WhereEquals("Status", f.Status).
		WhereEquals("Category", f.Category).
		WhereEquals("Priority", f.Priority).
		WhereBefore("CreatedAt", f.CreatedBefore).
		WhereBefore("EscalationLevel", f.BelowLevel)
}

// Match reports whether c satisfies every set filter.
func (f Filters) Match(c Complaint) bool {
	if f.UserID != nil && c.UserID != *f.UserID {
		return false
	}
	if f.Status != nil && string(c.Status) != *f.Status {
		return false
	}
	if f.Category != nil && string(c.Category) != *f.Category {
		return false
	}
	if f.Priority != nil && string(c.Priority) != *f.Priority {
		return false
	}
	if f.CreatedBefore != nil && !c.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.BelowLevel != nil && c.EscalationLevel >= *f.BelowLevel {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if p := values.Get("priority"); p != "" {
		f.Priority = &p
	}

	if cb := values.Get("created_before"); cb != "" {
		if t, err := time.Parse(time.RFC3339, cb); err == nil {
			f.CreatedBefore = &t
		}
	}

	if bl := values.Get("below_level"); bl != "" {
		if n, err := strconv.Atoi(bl); err == nil {
			f.BelowLevel = &n
		}
	}

	return f
}

func scanComplaint(s repository.Scanner) (Complaint, error) {
	var (
		c           Complaint
		suggestions []byte
		tags        []byte
		attachments []byte
	)

	err := s.Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.CategoryConfidence,
		&c.Priority,
		&c.PriorityConfidence,
		&suggestions,
		&c.Status,
		&c.EscalationLevel,
		&tags,
		&attachments,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	if err := unmarshalList(suggestions, &c.Suggestions); err != nil {
		return c, err
	}
	if err := unmarshalList(tags, &c.Tags); err != nil {
		return c, err
	}
	if err := unmarshalList(attachments, &c.Attachments); err != nil {
		return c, err
	}

	return c, nil
}

func unmarshalList(data []byte, dst *[]string) error {
	*dst = []string{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	return string(data), err
}

// compareBy orders complaints in memory by a logical sort field.
// Unknown fields compare equal so the remaining keys decide.
func compareBy(field string, a, b Complaint) int {
	switch field {
	case "CreatedAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "UpdatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "EscalationLevel":
		return cmp.Compare(a.EscalationLevel, b.EscalationLevel)
	case "Priority":
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case "Title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "Status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "Category":
		return strings.Compare(string(a.Category), string(b.Category))
	}
	return 0
}

func compareSorted(fields []query.SortField, a, b Complaint) int {
	for _, f := range fields {
		n := compareBy(f.Field, a, b)
		if f.Descending {
			n = -n
		}
		if n != 0 {
			return n
		}
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func matchesSearch(c Complaint, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	needle := strings.ToLower(*search)
	return strings.Contains(strings.ToLower(c.Title), needle) ||
		strings.Contains(strings.ToLower(c.Description), needle)
}
