package classifier

import (
	"context"
	"sync"
)

// Mock implements Model for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, returns UnknownLabel.
	ClassifyFunc func(ctx context.Context, text string) (string, float64, error)

	mu    sync.Mutex
	calls []string
}

// NewMock returns a mock that always answers label with full confidence.
func NewMock(label string) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, text string) (string, float64, error) {
			return label, 1, nil
		},
	}
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, text string) (string, float64, error) {
			return "", 0, err
		},
	}
}

// Classify calls ClassifyFunc and records the query.
func (m *Mock) Classify(ctx context.Context, text string) (string, float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return UnknownLabel, 0, nil
}

// Calls returns the recorded queries.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Classify ran.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Verify Mock implements Model at compile time.
var _ Model = (*Mock)(nil)
