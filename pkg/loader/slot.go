package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// LoadFunc produces a model handle. It runs on its own goroutine.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Slot owns one lazily loaded model handle of type T.
//
// The handle is stored before the state flips to Ready, so any reader that
// observes Ready also observes the handle.
type Slot[T any] struct {
	name   string
	load   LoadFunc[T]
	logger *slog.Logger

	once   sync.Once
	state  atomic.Int32
	handle atomic.Pointer[T]
	err    atomic.Pointer[error]
	done   chan struct{}
}

// NewSlot creates a slot that will run load on the first Start.
func NewSlot[T any](name string, load LoadFunc[T]) *Slot[T] {
	return &Slot[T]{
		name:   name,
		load:   load,
		logger: slog.Default().With("component", "loader.slot", "model", name),
		done:   make(chan struct{}),
	}
}

// Name returns the model identifier.
func (s *Slot[T]) Name() string {
	return s.name
}

// Start launches the load if it has never been launched. The state is
// Loading by the time Start returns. Later calls are no-ops and return
// false. ctx supplies values only; cancelling it does not abort the load.
func (s *Slot[T]) Start(ctx context.Context) bool {
	started := false
	s.once.Do(func() {
		started = true
		s.state.Store(int32(Loading))
		go s.run(context.WithoutCancel(ctx))
	})
	return started
}

func (s *Slot[T]) run(ctx context.Context) {
	start := time.Now()
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("loader: %s panicked: %v", s.name, r))
		}
	}()

	s.logger.Info("loading model")

	v, err := s.load(ctx)
	if err != nil {
		s.fail(err)
		return
	}

	s.handle.Store(&v)
	s.state.Store(int32(Ready))
	s.logger.Info("model ready", "elapsed", time.Since(start).Round(time.Millisecond))
}

func (s *Slot[T]) fail(err error) {
	s.err.Store(&err)
	s.state.Store(int32(Failed))
	s.logger.Error("model failed to load", "error", err)
}

// State returns the current readiness without blocking.
func (s *Slot[T]) State() State {
	return State(s.state.Load())
}

// Get returns the handle once the slot is Ready.
func (s *Slot[T]) Get() (T, bool) {
	var zero T
	if s.State() != Ready {
		return zero, false
	}
	h := s.handle.Load()
	if h == nil {
		return zero, false
	}
	return *h, true
}

// Err returns the load error of a Failed slot.
func (s *Slot[T]) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Wait blocks until the load settles or ctx is done, then returns the
// state observed. A slot that was never started returns NotStarted at once.
func (s *Slot[T]) Wait(ctx context.Context) State {
	if s.State() == NotStarted {
		return NotStarted
	}
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return s.State()
}
