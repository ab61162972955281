package triage_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/triage/internal/triage"
)

func ptr[T any](v T) *T { return &v }

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        triage.Category
		confidence  float64
	}{
		{"empty defaults to general", "", triage.CategoryGeneral, 0.7},
		{"billing", "I was charged twice on my invoice", triage.CategoryBilling, 0.9},
		{"billing before account", "refund for my account", triage.CategoryBilling, 0.9},
		{"account", "I forgot my password", triage.CategoryAccount, 0.9},
		{"privacy resolves to account", "privacy concern", triage.CategoryAccount, 0.9},
		{"technical", "the screen has a bug", triage.CategoryTechnical, 0.85},
		{"service", "there is an outage", triage.CategoryService, 0.8},
		{"product", "please add a feature", triage.CategoryProduct, 0.8},
		{"mobile platform", "my android phone", triage.CategoryTechnical, 0.8},
		{"web platform", "the website", triage.CategoryTechnical, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := triage.Classify("title", tt.description)
			if r.Category != tt.want {
				t.Errorf("Category = %s, want %s", r.Category, tt.want)
			}
			if r.CategoryConfidence != tt.confidence {
				t.Errorf("CategoryConfidence = %v, want %v", r.CategoryConfidence, tt.confidence)
			}
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        triage.Priority
		confidence  float64
	}{
		{"empty defaults to medium", "", triage.PriorityMedium, 0.7},
		{"urgency", "this is urgent", triage.PriorityHigh, 0.95},
		{"inability", "I am unable to proceed", triage.PriorityHigh, 0.85},
		{"payment", "about a refund", triage.PriorityHigh, 0.8},
		{"security", "a hack attempt", triage.PriorityHigh, 0.9},
		{"strongest high signal wins", "unable to see my data", triage.PriorityHigh, 0.9},
		{"feature request", "nice to have", triage.PriorityLow, 0.8},
		{"cosmetic", "the appearance of the page", triage.PriorityLow, 0.7},
		{"high beats low", "refund suggestion", triage.PriorityHigh, 0.8},
		{"catastrophic overrides low", "critical suggestion", triage.PriorityUrgent, 0.95},
		{"catastrophic overrides high", "complete failure, unable to pay", triage.PriorityUrgent, 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := triage.Classify("", tt.description)
			if r.Priority != tt.want {
				t.Errorf("Priority = %s, want %s", r.Priority, tt.want)
			}
			if r.PriorityConfidence != tt.confidence {
				t.Errorf("PriorityConfidence = %v, want %v", r.PriorityConfidence, tt.confidence)
			}
		})
	}
}

func TestClassifyIgnoresTitle(t *testing.T) {
	r := triage.Classify("urgent billing emergency", "")
	if r.Category != triage.CategoryGeneral || r.Priority != triage.PriorityMedium {
		t.Errorf("title influenced result: %+v", r)
	}
}

func TestClassifyResultsAreValid(t *testing.T) {
	inputs := []string{
		"",
		"!!!",
		"critical billing error, cannot login, system down",
		"nice to have a cosmetic design change",
		"my phone app crashes on the website",
		"\x00\xff binary",
	}

	for _, in := range inputs {
		r := triage.Classify("", in)
		if err := r.Validate(); err != nil {
			t.Errorf("Classify(%q) produced invalid result: %v", in, err)
		}
	}
}

func TestClassifyAttachesSuggestions(t *testing.T) {
	r := triage.Classify("", "emergency with a payment")

	want := triage.Suggest(triage.CategoryBilling, triage.PriorityUrgent)
	if !slices.Equal(r.Suggestions, want) {
		t.Errorf("Suggestions = %v, want %v", r.Suggestions, want)
	}
}

func TestAssess(t *testing.T) {
	t.Run("no overrides matches classify", func(t *testing.T) {
		r, err := triage.Assess("", "refund please", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Category != triage.CategoryBilling || r.CategoryConfidence != 0.9 {
			t.Errorf("unexpected category: %+v", r)
		}
	})

	t.Run("empty overrides are ignored", func(t *testing.T) {
		r, err := triage.Assess("", "refund please", ptr(""), ptr(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.CategoryConfidence != 0.9 || r.PriorityConfidence != 0.8 {
			t.Errorf("unexpected confidences: %+v", r)
		}
	})

	t.Run("overrides win with explicit confidence", func(t *testing.T) {
		r, err := triage.Assess("", "refund please", ptr("service"), ptr("urgent"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Category != triage.CategoryService || r.CategoryConfidence != triage.ExplicitConfidence {
			t.Errorf("category override not applied: %+v", r)
		}
		if r.Priority != triage.PriorityUrgent || r.PriorityConfidence != triage.ExplicitConfidence {
			t.Errorf("priority override not applied: %+v", r)
		}
		want := triage.Suggest(triage.CategoryService, triage.PriorityUrgent)
		if !slices.Equal(r.Suggestions, want) {
			t.Errorf("Suggestions = %v, want %v", r.Suggestions, want)
		}
	})

	t.Run("unknown override rejected", func(t *testing.T) {
		_, err := triage.Assess("", "text", ptr("shipping"), nil)
		if !errors.Is(err, triage.ErrInvariantViolation) {
			t.Errorf("err = %v, want ErrInvariantViolation", err)
		}

		_, err = triage.Assess("", "text", nil, ptr("critical"))
		if !errors.Is(err, triage.ErrInvariantViolation) {
			t.Errorf("err = %v, want ErrInvariantViolation", err)
		}
	})
}
