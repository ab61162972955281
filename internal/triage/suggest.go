package triage

var prioritySuggestions = map[Priority][]string{
	PriorityUrgent: {
		"Immediate escalation to senior support team",
		"24/7 monitoring and status updates",
		"Direct communication with affected users",
	},
	PriorityHigh: {
		"Escalate to specialized team",
		"Set up automated monitoring",
		"Regular status updates every 2 hours",
	},
}

var categorySuggestions = map[Category][]string{
	CategoryBilling: {
		"Verify payment gateway status",
		"Check user account permissions",
		"Review transaction logs",
	},
	CategoryTechnical: {
		"Check system logs for errors",
		"Verify system dependencies",
		"Test in different environments",
	},
	CategoryAccount: {
		"Verify user authentication",
		"Check account permissions",
		"Review security settings",
	},
	CategoryService: {
		"Check server status and resources",
		"Monitor performance metrics",
		"Verify third-party service status",
	},
}

// Suggest returns remediation actions for a triage outcome: the priority
// block first, then the category block. The slice is freshly allocated.
func Suggest(category Category, priority Priority) []string {
	p := prioritySuggestions[priority]
	c := categorySuggestions[category]

	out := make([]string, 0, len(p)+len(c))
	out = append(out, p...)
	out = append(out, c...)
	return out
}
