package complaints_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/triage"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestParseStatus(t *testing.T) {
	for _, s := range complaints.Statuses() {
		got, err := complaints.ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}

	if _, err := complaints.ParseStatus("archived"); !errors.Is(err, triage.ErrInvariantViolation) {
		t.Errorf("err = %v, want ErrInvariantViolation", err)
	}
}

func TestStatusOpen(t *testing.T) {
	tests := []struct {
		status complaints.Status
		want   bool
	}{
		{complaints.StatusRegistered, true},
		{complaints.StatusInProgress, true},
		{complaints.StatusResolved, false},
		{complaints.StatusClosed, false},
	}

	for _, tt := range tests {
		if got := tt.status.Open(); got != tt.want {
			t.Errorf("%s.Open() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCreateCommandBuild(t *testing.T) {
	t.Run("auto triage", func(t *testing.T) {
		cmd := complaints.CreateCommand{
			Title:       "  Charged twice  ",
			Description: "I was charged twice on my invoice and it's urgent",
		}

		c, err := cmd.Build("user-1", fixedNow)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		if c.Title != "Charged twice" {
			t.Errorf("Title = %q, want trimmed", c.Title)
		}
		if c.Category != triage.CategoryBilling || c.CategoryConfidence != 0.9 {
			t.Errorf("category = %s %v, want billing 0.9", c.Category, c.CategoryConfidence)
		}
		if c.Priority != triage.PriorityHigh {
			t.Errorf("priority = %s, want high", c.Priority)
		}
		if c.Status != complaints.StatusRegistered || c.EscalationLevel != 0 {
			t.Errorf("initial state = %s/%d", c.Status, c.EscalationLevel)
		}
		if !c.CreatedAt.Equal(fixedNow) || !c.UpdatedAt.Equal(fixedNow) {
			t.Errorf("timestamps = %v/%v", c.CreatedAt, c.UpdatedAt)
		}
		if c.Tags == nil || c.Attachments == nil {
			t.Error("tags and attachments should be empty, not nil")
		}
		want := triage.Suggest(c.Category, c.Priority)
		if !slices.Equal(c.Suggestions, want) {
			t.Errorf("Suggestions = %v, want %v", c.Suggestions, want)
		}
	})

	t.Run("explicit override", func(t *testing.T) {
		cmd := complaints.CreateCommand{
			Title:       "Login",
			Description: "The dashboard is slow",
			Category:    ptr("account"),
			Priority:    ptr("low"),
		}

		c, err := cmd.Build("user-1", fixedNow)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if c.Category != triage.CategoryAccount || c.CategoryConfidence != triage.ExplicitConfidence {
			t.Errorf("category = %s %v", c.Category, c.CategoryConfidence)
		}
		if c.Priority != triage.PriorityLow || c.PriorityConfidence != triage.ExplicitConfidence {
			t.Errorf("priority = %s %v", c.Priority, c.PriorityConfidence)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			userID string
			cmd    complaints.CreateCommand
			want   error
		}{
			{"missing user", "", complaints.CreateCommand{Title: "t", Description: "d"}, triage.ErrValidation},
			{"blank title", "u", complaints.CreateCommand{Title: "   ", Description: "d"}, triage.ErrValidation},
			{"missing description", "u", complaints.CreateCommand{Title: "t"}, triage.ErrValidation},
			{"bad category", "u", complaints.CreateCommand{Title: "t", Description: "d", Category: ptr("legal")}, triage.ErrInvariantViolation},
			{"bad priority", "u", complaints.CreateCommand{Title: "t", Description: "d", Priority: ptr("p0")}, triage.ErrInvariantViolation},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := tt.cmd.Build(tt.userID, fixedNow); !errors.Is(err, tt.want) {
					t.Errorf("err = %v, want %v", err, tt.want)
				}
			})
		}
	})
}

func TestUpdateCommandApply(t *testing.T) {
	base := func() complaints.Complaint {
		c, err := complaints.CreateCommand{
			Title:       "Refund",
			Description: "I need a refund for my subscription",
		}.Build("user-1", fixedNow)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return c
	}

	later := fixedNow.Add(time.Hour)

	t.Run("status only keeps triage", func(t *testing.T) {
		c := base()
		before := c.Suggestions

		if err := (complaints.UpdateCommand{Status: ptr("in_progress")}).Apply(&c, later); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if c.Status != complaints.StatusInProgress {
			t.Errorf("Status = %s", c.Status)
		}
		if !slices.Equal(c.Suggestions, before) {
			t.Error("suggestions changed on status-only update")
		}
		if !c.UpdatedAt.Equal(later) {
			t.Errorf("UpdatedAt = %v, want %v", c.UpdatedAt, later)
		}
	})

	t.Run("priority regenerates suggestions", func(t *testing.T) {
		c := base()

		if err := (complaints.UpdateCommand{Priority: ptr("urgent")}).Apply(&c, later); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if c.Priority != triage.PriorityUrgent || c.PriorityConfidence != triage.ExplicitConfidence {
			t.Errorf("priority = %s %v", c.Priority, c.PriorityConfidence)
		}
		if !slices.Equal(c.Suggestions, triage.Suggest(c.Category, triage.PriorityUrgent)) {
			t.Errorf("Suggestions = %v", c.Suggestions)
		}
	})

	t.Run("invalid value leaves complaint untouched", func(t *testing.T) {
		c := base()
		orig := c

		err := (complaints.UpdateCommand{Status: ptr("resolved"), Category: ptr("weather")}).Apply(&c, later)
		if !errors.Is(err, triage.ErrInvariantViolation) {
			t.Fatalf("err = %v, want ErrInvariantViolation", err)
		}
		if c.Status != orig.Status || !c.UpdatedAt.Equal(orig.UpdatedAt) {
			t.Error("complaint mutated by failed update")
		}
	})

	t.Run("tags replaced", func(t *testing.T) {
		c := base()
		if err := (complaints.UpdateCommand{Tags: []string{"vip"}}).Apply(&c, later); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if !slices.Equal(c.Tags, []string{"vip"}) {
			t.Errorf("Tags = %v", c.Tags)
		}
	})
}

func TestUpdateCommandEmpty(t *testing.T) {
	if !(complaints.UpdateCommand{}).Empty() {
		t.Error("zero command should be empty")
	}
	if (complaints.UpdateCommand{Tags: []string{}}).Empty() {
		t.Error("explicit empty tags clears tags and is not empty")
	}
}

func TestNewAnalyticsSeedsKeys(t *testing.T) {
	a := complaints.NewAnalytics()

	if len(a.ByStatus) != len(complaints.Statuses()) {
		t.Errorf("ByStatus has %d keys", len(a.ByStatus))
	}
	if len(a.ByCategory) != len(triage.Categories()) {
		t.Errorf("ByCategory has %d keys", len(a.ByCategory))
	}
	if len(a.ByPriority) != len(triage.Priorities()) {
		t.Errorf("ByPriority has %d keys", len(a.ByPriority))
	}
}
