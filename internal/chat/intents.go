package chat

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/triage/internal/signals"
	"github.com/JaimeStill/triage/internal/triage"
)

// Intent names the conversational purpose assigned to a turn.
type Intent string

// Recognized intents in cascade order.
const (
	IntentComplaintAnalysis Intent = "complaint_analysis"
	IntentComplaintCreation Intent = "complaint_creation"
	IntentStatusCheck       Intent = "status_check"
	IntentHelp              Intent = "help"
	IntentGreeting          Intent = "greeting"
	IntentBillingIssue      Intent = "billing_issue"
	IntentTechnicalIssue    Intent = "technical_issue"
	IntentServiceIssue      Intent = "service_issue"
	IntentHowTo             Intent = "how_to"
	IntentUrgentIssue       Intent = "urgent_issue"
	IntentGeneralInquiry    Intent = "general_inquiry"
)

// narrativeLength is the rune count a message must exceed before it is
// treated as a complaint narrative.
const narrativeLength = 20

// MaxSuggestions caps the suggestions surfaced in a conversational reply.
const MaxSuggestions = 3

// Decision is the outcome of routing a single message.
type Decision struct {
	Intent     Intent
	Confidence float64
	Message    string
	Analysis   *triage.Result
}

type turn struct {
	raw        string
	normalized string
	name       string
}

type rule struct {
	intent     Intent
	confidence float64
	match      func(t turn) bool
	reply      func(t turn) (string, *triage.Result)
}

func anyOf(literals ...string) func(t turn) bool {
	return func(t turn) bool {
		return signals.ContainsAny(t.normalized, literals...)
	}
}

func fixed(message string) func(t turn) (string, *triage.Result) {
	return func(turn) (string, *triage.Result) {
		return message, nil
	}
}

var narrativeTerms = []string{"problem", "issue", "error", "broken", "not working", "cannot", "unable"}

var rules = []rule{
	{
		intent:     IntentComplaintAnalysis,
		confidence: 0.9,
		match: func(t turn) bool {
			return utf8.RuneCountInString(t.raw) > narrativeLength &&
				signals.ContainsAny(t.normalized, narrativeTerms...)
		},
		reply: analyze,
	},
	{
		intent:     IntentComplaintCreation,
		confidence: 0.9,
		match:      anyOf("complaint", "issue", "problem"),
		reply: fixed("I can help you log a complaint. Please describe your issue in detail, " +
			"and I'll automatically classify and prioritize it for you. " +
			"What type of problem are you experiencing?"),
	},
	{
		intent:     IntentStatusCheck,
		confidence: 0.9,
		match:      anyOf("status", "check"),
		reply: fixed("I can help you check the status of your complaints. " +
			"Do you have a specific complaint ID, or would you like me to show your recent complaints?"),
	},
	{
		intent:     IntentHelp,
		confidence: 0.95,
		match:      anyOf("help", "support"),
		reply: fixed("I'm here to help! You can:\n" +
			"- Log new complaints (I'll auto-classify them)\n" +
			"- Check complaint status\n" +
			"- Get information about our services\n" +
			"- Ask general questions\n\n" +
			"What would you like to do?"),
	},
	{
		intent:     IntentGreeting,
		confidence: 0.9,
		match:      anyOf("hello", "hi"),
		reply: func(t turn) (string, *triage.Result) {
			name := t.name
			if name == "" {
				name = "there"
			}
			return fmt.Sprintf("Hello %s! How can I assist you today? "+
				"I'm here to help with your complaints and questions.", name), nil
		},
	},
	{
		intent:     IntentBillingIssue,
		confidence: 0.85,
		match:      anyOf("billing", "payment"),
		reply: fixed("I understand you have a billing or payment issue. Please provide more details " +
			"about the problem, and I'll automatically classify and prioritize it for you."),
	},
	{
		intent:     IntentTechnicalIssue,
		confidence: 0.85,
		match:      anyOf("technical", "error", "bug"),
		reply: fixed("I see you're experiencing a technical issue. Please describe the error or bug " +
			"in detail, and I'll help you create a properly classified complaint."),
	},
	{
		intent:     IntentServiceIssue,
		confidence: 0.85,
		match:      anyOf("service", "outage"),
		reply: fixed("I understand there's a service issue or outage. Please provide details about " +
			"the service problem, and I'll analyze and prioritize it for you."),
	},
	{
		intent:     IntentHowTo,
		confidence: 0.9,
		match: func(t turn) bool {
			return strings.Contains(t.normalized, "how") && strings.Contains(t.normalized, "create")
		},
		reply: fixed("To create a complaint:\n" +
			"1. Simply describe your issue to me\n" +
			"2. I'll automatically classify and prioritize it\n" +
			"3. Review my suggestions\n" +
			"4. Confirm to create the ticket\n\n" +
			"Just tell me what's wrong!"),
	},
	{
		intent:     IntentUrgentIssue,
		confidence: 0.95,
		match:      anyOf("urgent", "emergency"),
		reply: fixed("I understand this is urgent. Please describe the emergency situation in detail, " +
			"and I'll immediately classify it as urgent and provide escalation suggestions."),
	},
}

var fallback = rule{
	intent:     IntentGeneralInquiry,
	confidence: 0.7,
	reply: fixed("I understand you're asking about that. Let me help you with your complaint " +
		"management needs. Would you like to log a new complaint, check the status of existing " +
		"ones, or get help with something specific?"),
}

// Decide routes message through the intent cascade; the first matching
// rule wins. name personalizes the greeting. Decide is pure.
func Decide(message, name string) Decision {
	t := turn{
		raw:        message,
		normalized: signals.Normalize(message),
		name:       name,
	}

	r := fallback
	for _, candidate := range rules {
		if candidate.match(t) {
			r = candidate
			break
		}
	}

	text, analysis := r.reply(t)
	return Decision{
		Intent:     r.intent,
		Confidence: r.confidence,
		Message:    text,
		Analysis:   analysis,
	}
}

func analyze(t turn) (string, *triage.Result) {
	result := triage.Classify("", t.raw)
	result.Suggestions = slices.Clone(result.Suggestions[:min(MaxSuggestions, len(result.Suggestions))])

	var b strings.Builder
	b.WriteString("I've analyzed your complaint and here's what I found:\n\n")
	fmt.Fprintf(&b, "Category: %s (confidence: %s)\n", titleCase(string(result.Category)), percent(result.CategoryConfidence))
	fmt.Fprintf(&b, "Priority: %s (confidence: %s)\n\n", titleCase(string(result.Priority)), percent(result.PriorityConfidence))

	switch result.Priority {
	case triage.PriorityUrgent:
		b.WriteString("URGENT: This requires immediate attention!\n\n")
	case triage.PriorityHigh:
		b.WriteString("HIGH PRIORITY: This will be escalated quickly.\n\n")
	}

	if len(result.Suggestions) > 0 {
		b.WriteString("Suggestions:\n")
		for i, s := range result.Suggestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}

	b.WriteString("Would you like me to create a complaint ticket with these settings, " +
		"or would you like to modify anything?")

	return b.String(), &result
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
