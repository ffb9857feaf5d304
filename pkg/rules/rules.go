// Package rules holds the static keyword commands the assistant can run
// with no model and no network.
package rules

import (
	"strings"
	"time"
)

// Rule answers any query containing one of its phrases.
type Rule struct {
	Name    string
	Phrases []string
	Respond func(now time.Time) string
}

// Engine matches queries against an ordered rule list.
type Engine struct {
	rules []Rule
	now   func() time.Time
}

// New creates an engine over rules. The first matching rule wins.
func New(rules ...Rule) *Engine {
	return &Engine{rules: rules, now: time.Now}
}

// Default returns the built-in offline commands.
func Default() *Engine {
	return New(
		Rule{
			Name:    "time",
			Phrases: []string{"what is the time", "what time is it", "tell me the time"},
			Respond: func(now time.Time) string {
				return "The time is " + now.Format("15:04:05")
			},
		},
		Rule{
			Name:    "date",
			Phrases: []string{"what is the date", "what's the date", "what day is it"},
			Respond: func(now time.Time) string {
				return "Today is " + now.Format("Monday, January 2")
			},
		},
		Rule{
			Name:    "hello",
			Phrases: []string{"hello jarvis", "hello srishti"},
			Respond: func(time.Time) string {
				return "Hello! I am currently in offline mode. How can I help?"
			},
		},
	)
}

// SetClock overrides the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Match runs the first rule with a phrase contained in query.
func (e *Engine) Match(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, r := range e.rules {
		for _, p := range r.Phrases {
			if strings.Contains(q, p) {
				return r.Respond(e.now()), true
			}
		}
	}
	return "", false
}

// Execute runs the rule named by a classifier label. A label may be the
// rule name or any of its phrases.
func (e *Engine) Execute(label string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, r := range e.rules {
		if l == r.Name {
			return r.Respond(e.now()), true
		}
		for _, p := range r.Phrases {
			if l == p {
				return r.Respond(e.now()), true
			}
		}
	}
	return "", false
}
