package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownModel is returned for a model id that was never registered.
	ErrUnknownModel = errors.New("loader: unknown model")

	// ErrDuplicateModel is returned when a model id is registered twice.
	ErrDuplicateModel = errors.New("loader: duplicate model")
)

// Model is the type-erased view of a Slot.
type Model interface {
	Name() string
	Start(ctx context.Context) bool
	State() State
	Err() error
	Wait(ctx context.Context) State
}

// Loader is a registry of background-loaded models keyed by id.
type Loader struct {
	mu     sync.RWMutex
	models map[string]Model
}

// New creates an empty loader.
func New() *Loader {
	return &Loader{models: make(map[string]Model)}
}

// Register adds a model under its own name.
func (l *Loader) Register(m Model) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.models[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, m.Name())
	}
	l.models[m.Name()] = m
	return nil
}

// StartLoading triggers the background load of id. Repeat calls are no-ops.
func (l *Loader) StartLoading(ctx context.Context, id string) error {
	m, ok := l.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	m.Start(ctx)
	return nil
}

// StartAll triggers every registered model.
func (l *Loader) StartAll(ctx context.Context) {
	for _, id := range l.IDs() {
		l.StartLoading(ctx, id)
	}
}

// State returns the readiness of id. Unknown ids report NotStarted.
func (l *Loader) State(id string) State {
	m, ok := l.lookup(id)
	if !ok {
		return NotStarted
	}
	return m.State()
}

// States returns a snapshot of every model's readiness.
func (l *Loader) States() map[string]State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]State, len(l.models))
	for id, m := range l.models {
		out[id] = m.State()
	}
	return out
}

// IDs returns the registered ids in sorted order.
func (l *Loader) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.models))
	for id := range l.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WaitAll blocks until every started model settles or ctx is done.
func (l *Loader) WaitAll(ctx context.Context) {
	for _, id := range l.IDs() {
		if m, ok := l.lookup(id); ok {
			m.Wait(ctx)
		}
	}
}

func (l *Loader) lookup(id string) (Model, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.models[id]
	return m, ok
}

// Verify Slot implements Model at compile time.
var _ Model = (*Slot[struct{}])(nil)
