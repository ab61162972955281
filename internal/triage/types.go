// Package triage assigns a category and priority to complaint text and
// derives remediation suggestions from the result.
// Classification is rule-based: ordered keyword rules over the clusters
// detected by package signals, with fixed confidence values.
package triage

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Category is the closed set of complaint categories.
type Category string

// Valid categories.
const (
	CategoryBilling   Category = "billing"
	CategoryAccount   Category = "account"
	CategoryTechnical Category = "technical"
	CategoryService   Category = "service"
	CategoryProduct   Category = "product"
	CategoryGeneral   Category = "general"
)

var categories = []Category{
	CategoryBilling,
	CategoryAccount,
	CategoryTechnical,
	CategoryService,
	CategoryProduct,
	CategoryGeneral,
}

// Categories returns the valid categories.
func Categories() []Category {
	return slices.Clone(categories)
}

// ParseCategory validates s as a known category.
func ParseCategory(s string) (Category, error) {
	v := Category(s)
	if !slices.Contains(categories, v) {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvariantViolation, s)
	}
	return v, nil
}

// UnmarshalJSON rejects values outside the enumeration.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Priority is the closed set of complaint priorities, lowest first.
type Priority string

// Valid priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

// Priorities returns the valid priorities, lowest first.
func Priorities() []Priority {
	return slices.Clone(priorities)
}

// ParsePriority validates s as a known priority.
func ParsePriority(s string) (Priority, error) {
	v := Priority(s)
	if !slices.Contains(priorities, v) {
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvariantViolation, s)
	}
	return v, nil
}

// UnmarshalJSON rejects values outside the enumeration.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Rank orders priorities; unknown values rank below low.
func (p Priority) Rank() int {
	return slices.Index(priorities, p)
}

// Result is the outcome of a single triage.
type Result struct {
	Category           Category `json:"category"`
	CategoryConfidence float64  `json:"category_confidence"`
	Priority           Priority `json:"priority"`
	PriorityConfidence float64  `json:"priority_confidence"`
	Suggestions        []string `json:"suggestions"`
}

// Validate reports ErrInvariantViolation when a field falls outside its
// enumeration or a confidence outside [0, 1].
func (r Result) Validate() error {
	if !slices.Contains(categories, r.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvariantViolation, r.Category)
	}
	if !slices.Contains(priorities, r.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvariantViolation, r.Priority)
	}
	if !validConfidence(r.CategoryConfidence) {
		return fmt.Errorf("%w: category_confidence %v out of range", ErrInvariantViolation, r.CategoryConfidence)
	}
	if !validConfidence(r.PriorityConfidence) {
		return fmt.Errorf("%w: priority_confidence %v out of range", ErrInvariantViolation, r.PriorityConfidence)
	}
	return nil
}

func validConfidence(v float64) bool {
	return v >= 0 && v <= 1
}
