package rules

import (
	"testing"
	"time"
)

func fixedEngine() *Engine {
	e := Default()
	e.SetClock(func() time.Time {
		return time.Date(2025, time.March, 4, 9, 5, 7, 0, time.UTC)
	})
	return e
}

func TestMatch(t *testing.T) {
	e := fixedEngine()

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"What is the time", "The time is 09:05:07", true},
		{"hey, what time is it now", "The time is 09:05:07", true},
		{"what is the date today", "Today is Tuesday, March 4", true},
		{"Hello Jarvis", "Hello! I am currently in offline mode. How can I help?", true},
		{"hello srishti how are you", "Hello! I am currently in offline mode. How can I help?", true},
		{"play some music", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got, ok := e.Match(tc.query)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExecute(t *testing.T) {
	e := fixedEngine()

	tests := []struct {
		label  string
		want   string
		wantOK bool
	}{
		{"time", "The time is 09:05:07", true},
		{"what is the time", "The time is 09:05:07", true},
		{" HELLO ", "Hello! I am currently in offline mode. How can I help?", true},
		{"Paris is the capital of France", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := e.Execute(tc.label)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("Execute(%q) = %q, %v; want %q, %v", tc.label, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestFirstRuleWins(t *testing.T) {
	e := New(
		Rule{Name: "a", Phrases: []string{"x"}, Respond: func(time.Time) string { return "A" }},
		Rule{Name: "b", Phrases: []string{"x"}, Respond: func(time.Time) string { return "B" }},
	)
	if got, _ := e.Match("x"); got != "A" {
		t.Errorf("got %q", got)
	}
}
