// Package online provides conversational chat backends used when the
// assistant has network access.
//
// Each backend keeps its own conversation history so follow-up questions
// carry context, mirroring a chat session. A Chain tries backends in order
// until one answers.
package online

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Backend answers free-form queries within a running conversation.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Ask sends query and returns the reply text.
	Ask(ctx context.Context, query string) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Role of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in the conversation.
type Turn struct {
	Role Role
	Text string
}

// History is a bounded, concurrency-safe conversation log.
type History struct {
	id       string
	maxTurns int

	mu    sync.Mutex
	turns []Turn
}

// NewHistory creates an empty history that keeps at most maxTurns turns.
// maxTurns <= 0 keeps everything.
func NewHistory(maxTurns int) *History {
	return &History{
		id:       uuid.New().String(),
		maxTurns: maxTurns,
	}
}

// ID returns the session identifier.
func (h *History) ID() string {
	return h.id
}

// Snapshot returns a copy of the turns.
func (h *History) Snapshot() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Record appends a completed exchange.
func (h *History) Record(query, reply string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Role: RoleUser, Text: query}, Turn{Role: RoleModel, Text: reply})
	if h.maxTurns > 0 && len(h.turns) > h.maxTurns {
		h.turns = h.turns[len(h.turns)-h.maxTurns:]
	}
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Reset clears the conversation and starts a new session id.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
	h.id = uuid.New().String()
}
