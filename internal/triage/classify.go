package triage

import (
	"github.com/JaimeStill/triage/internal/signals"
)

// ExplicitConfidence is assigned to a category or priority supplied by the
// submitter instead of derived from text.
const ExplicitConfidence = 0.8

const (
	defaultCategoryConfidence = 0.7
	defaultPriorityConfidence = 0.7
)

type categoryRule struct {
	when       signals.Cluster
	category   Category
	confidence float64
}

// First match wins. Security terms resolve to account.
var categoryRules = []categoryRule{
	{signals.Billing, CategoryBilling, 0.9},
	{signals.Account, CategoryAccount, 0.9},
	{signals.Security, CategoryAccount, 0.9},
	{signals.Technical, CategoryTechnical, 0.85},
	{signals.Service, CategoryService, 0.8},
	{signals.Product, CategoryProduct, 0.8},
	{signals.Mobile, CategoryTechnical, 0.8},
	{signals.Web, CategoryTechnical, 0.8},
}

type priorityRule struct {
	when       signals.Cluster
	confidence float64
}

// Layer 2: any match raises priority to high at the strongest confidence.
var highRules = []priorityRule{
	{signals.Urgency, 0.95},
	{signals.Inability, 0.85},
	{signals.Payment, 0.8},
	{signals.Security, 0.9},
}

// Layer 3: consulted only when no high rule matched. First match wins.
var lowRules = []priorityRule{
	{signals.FeatureRequest, 0.8},
	{signals.Cosmetic, 0.7},
}

// Layer 4: applied last, regardless of earlier layers.
var urgentRule = priorityRule{signals.Catastrophic, 0.95}

// Classify triages a complaint. The title is accepted for parity with the
// complaint record but only the description is examined.
func Classify(title, description string) Result {
	set := signals.Extract(description)

	category, categoryConfidence := resolveCategory(set)
	priority, priorityConfidence := resolvePriority(set)

	return Result{
		Category:           category,
		CategoryConfidence: categoryConfidence,
		Priority:           priority,
		PriorityConfidence: priorityConfidence,
		Suggestions:        Suggest(category, priority),
	}
}

// Assess classifies a complaint and applies submitter overrides.
// A non-empty override wins over the derived value and carries
// ExplicitConfidence. Overrides outside the enumerations are rejected.
func Assess(title, description string, category, priority *string) (Result, error) {
	r := Classify(title, description)

	if category != nil && *category != "" {
		c, err := ParseCategory(*category)
		if err != nil {
			return Result{}, err
		}
		r.Category = c
		r.CategoryConfidence = ExplicitConfidence
	}

	if priority != nil && *priority != "" {
		p, err := ParsePriority(*priority)
		if err != nil {
			return Result{}, err
		}
		r.Priority = p
		r.PriorityConfidence = ExplicitConfidence
	}

	r.Suggestions = Suggest(r.Category, r.Priority)
	return r, nil
}

func resolveCategory(set signals.Set) (Category, float64) {
	for _, rule := range categoryRules {
		if set.Has(rule.when) {
			return rule.category, rule.confidence
		}
	}
	return CategoryGeneral, defaultCategoryConfidence
}

func resolvePriority(set signals.Set) (Priority, float64) {
	priority, confidence := PriorityMedium, defaultPriorityConfidence

	if c, ok := strongest(set, highRules); ok {
		priority, confidence = PriorityHigh, c
	} else if c, ok := first(set, lowRules); ok {
		priority, confidence = PriorityLow, c
	}

	if set.Has(urgentRule.when) {
		priority, confidence = PriorityUrgent, urgentRule.confidence
	}

	return priority, confidence
}

func strongest(set signals.Set, rules []priorityRule) (float64, bool) {
	var best float64
	matched := false
	for _, rule := range rules {
		if set.Has(rule.when) && (!matched || rule.confidence > best) {
			best = rule.confidence
			matched = true
		}
	}
	return best, matched
}

func first(set signals.Set, rules []priorityRule) (float64, bool) {
	for _, rule := range rules {
		if set.Has(rule.when) {
			return rule.confidence, true
		}
	}
	return 0, false
}
