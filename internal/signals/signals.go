// Package signals detects keyword clusters in free text.
// Matching is literal substring containment over normalized text: no
// tokenization and no stemming.
package signals

import (
	"strings"
)

// Cluster identifies a named set of keyword literals.
type Cluster uint8

// Keyword clusters. Category resolution and priority resolution read
// different clusters, which is why Billing/Payment and Product/FeatureRequest
// are kept apart.
const (
	Billing Cluster = iota
	Account
	Security
	Technical
	Service
	Product
	Mobile
	Web
	Urgency
	Inability
	Payment
	FeatureRequest
	Cosmetic
	Catastrophic

	numClusters
)

var names = [numClusters]string{
	Billing:        "billing",
	Account:        "account",
	Security:       "security",
	Technical:      "technical",
	Service:        "service",
	Product:        "product",
	Mobile:         "mobile",
	Web:            "web",
	Urgency:        "urgency",
	Inability:      "inability",
	Payment:        "payment",
	FeatureRequest: "feature_request",
	Cosmetic:       "cosmetic",
	Catastrophic:   "catastrophic",
}

var terms = [numClusters][]string{
	Billing:        {"payment", "billing", "charge", "invoice", "money", "refund", "credit"},
	Account:        {"login", "password", "authentication", "access", "account", "sign in"},
	Security:       {"data", "privacy", "security", "breach", "hack"},
	Technical:      {"error", "bug", "crash", "freeze", "not working", "broken", "technical"},
	Service:        {"service", "outage", "down", "unavailable", "slow", "performance"},
	Product:        {"feature", "request", "enhancement", "improvement", "suggestion"},
	Mobile:         {"mobile", "app", "android", "ios", "phone"},
	Web:            {"website", "web", "browser", "online"},
	Urgency:        {"urgent", "emergency", "critical", "immediate", "asap", "now"},
	Inability:      {"cannot", "unable", "broken", "down", "error", "failed", "not working"},
	Payment:        {"payment", "billing", "money", "charge", "refund"},
	FeatureRequest: {"suggestion", "improvement", "enhancement", "feature request", "nice to have"},
	Cosmetic:       {"cosmetic", "design", "look", "appearance", "style"},
	Catastrophic:   {"emergency", "critical", "system down", "complete failure", "security breach"},
}

// String returns the cluster's snake_case name.
func (c Cluster) String() string {
	if c >= numClusters {
		return "unknown"
	}
	return names[c]
}

// Terms returns a copy of the literals that make up the cluster.
func (c Cluster) Terms() []string {
	if c >= numClusters {
		return nil
	}
	return append([]string(nil), terms[c]...)
}

// Set records which clusters matched a text.
type Set uint32

// Has reports whether c matched.
func (s Set) Has(c Cluster) bool {
	return c < numClusters && s&(1<<c) != 0
}

// Any reports whether at least one of the given clusters matched.
func (s Set) Any(cs ...Cluster) bool {
	for _, c := range cs {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Clusters lists the matched clusters in declaration order.
func (s Set) Clusters() []Cluster {
	out := make([]Cluster, 0)
	for c := range numClusters {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s Set) String() string {
	cs := s.Clusters()
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Extract normalizes text and tests it against every cluster.
// Empty or unrecognized text yields the empty set.
func Extract(text string) Set {
	normalized := Normalize(text)
	if normalized == "" {
		return 0
	}

	var s Set
	for c := range numClusters {
		if ContainsAny(normalized, terms[c]...) {
			s |= 1 << c
		}
	}
	return s
}

// Normalize lower-cases text and collapses whitespace runs to single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ContainsAny reports whether normalized contains any of the literals.
// Callers pass text already produced by Normalize.
func ContainsAny(normalized string, literals ...string) bool {
	for _, l := range literals {
		if strings.Contains(normalized, l) {
			return true
		}
	}
	return false
}
