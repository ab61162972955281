package triage_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/triage/internal/triage"
)

func TestSuggestOrdering(t *testing.T) {
	got := triage.Suggest(triage.CategoryBilling, triage.PriorityUrgent)
	want := []string{
		"Immediate escalation to senior support team",
		"24/7 monitoring and status updates",
		"Direct communication with affected users",
		"Verify payment gateway status",
		"Check user account permissions",
		"Review transaction logs",
	}

	if !slices.Equal(got, want) {
		t.Errorf("Suggest(billing, urgent) = %v, want %v", got, want)
	}
}

func TestSuggestBlocks(t *testing.T) {
	tests := []struct {
		name     string
		category triage.Category
		priority triage.Priority
		wantLen  int
		first    string
	}{
		{"high technical", triage.CategoryTechnical, triage.PriorityHigh, 6, "Escalate to specialized team"},
		{"medium account", triage.CategoryAccount, triage.PriorityMedium, 3, "Verify user authentication"},
		{"low service", triage.CategoryService, triage.PriorityLow, 3, "Check server status and resources"},
		{"urgent general", triage.CategoryGeneral, triage.PriorityUrgent, 3, "Immediate escalation to senior support team"},
		{"medium product", triage.CategoryProduct, triage.PriorityMedium, 0, ""},
		{"low general", triage.CategoryGeneral, triage.PriorityLow, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := triage.Suggest(tt.category, tt.priority)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d (%v)", len(got), tt.wantLen, got)
			}
			if tt.wantLen > 0 && got[0] != tt.first {
				t.Errorf("first = %q, want %q", got[0], tt.first)
			}
			if got == nil {
				t.Error("Suggest should return a non-nil slice")
			}
		})
	}
}

func TestSuggestReturnsFreshSlice(t *testing.T) {
	a := triage.Suggest(triage.CategoryBilling, triage.PriorityHigh)
	a[0] = "mutated"

	b := triage.Suggest(triage.CategoryBilling, triage.PriorityHigh)
	if b[0] != "Escalate to specialized team" {
		t.Error("mutating a result leaked into later calls")
	}
}
