package signals_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/triage/internal/signals"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []signals.Cluster
	}{
		{"empty", "", []signals.Cluster{}},
		{"whitespace only", "   \t\n ", []signals.Cluster{}},
		{"garbage", "zzz qqq", []signals.Cluster{}},
		{
			"download contains down",
			"download",
			[]signals.Cluster{signals.Service, signals.Inability},
		},
		{
			"unable is inability",
			"unable",
			[]signals.Cluster{signals.Inability},
		},
		{
			"case insensitive",
			"REFUND",
			[]signals.Cluster{signals.Billing, signals.Payment},
		},
		{
			"collapsed whitespace joins phrases",
			"the page is   NOT\tworking",
			[]signals.Cluster{signals.Technical, signals.Inability},
		},
		{
			"substring inside a word",
			"I know",
			[]signals.Cluster{signals.Urgency},
		},
		{
			"catastrophic phrase",
			"system down",
			[]signals.Cluster{signals.Service, signals.Inability, signals.Catastrophic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signals.Extract(tt.text).Clusters()
			if !slices.Equal(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "Critical billing error, cannot login"
	first := signals.Extract(text)
	for range 10 {
		if got := signals.Extract(text); got != first {
			t.Fatalf("Extract not deterministic: %v vs %v", got, first)
		}
	}
}

func TestSetAny(t *testing.T) {
	s := signals.Extract("cosmetic issue")

	if !s.Any(signals.Billing, signals.Cosmetic) {
		t.Error("Any should report cosmetic")
	}
	if s.Any(signals.Billing, signals.Urgency) {
		t.Error("Any should not report billing or urgency")
	}
	if s.Any() {
		t.Error("Any with no clusters should be false")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Hello   World ", "hello world"},
		{"Sign\nIn", "sign in"},
	}

	for _, tt := range tests {
		if got := signals.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClusterTermsCopy(t *testing.T) {
	terms := signals.Billing.Terms()
	terms[0] = "mutated"

	if signals.Billing.Terms()[0] != "payment" {
		t.Error("Terms should return a copy")
	}
}

func TestSetString(t *testing.T) {
	s := signals.Extract("refund")
	if got, want := s.String(), "{billing,payment}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
