package online

import (
	"context"
	"sync"
	"time"
)

// Mock implements Backend for testing.
type Mock struct {
	// MockName is returned by Name. Defaults to "mock".
	MockName string

	// AskFunc is called when Ask is invoked.
	// If nil, echoes the query.
	AskFunc func(ctx context.Context, query string) (string, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Query  string
	Time   time.Time
}

// NewMock creates a mock that always replies with reply.
func NewMock(reply string) *Mock {
	return &Mock{
		AskFunc: func(ctx context.Context, query string) (string, error) {
			return reply, nil
		},
	}
}

// WithError returns a mock whose every Ask fails with err.
func WithError(err error) *Mock {
	return &Mock{
		AskFunc: func(ctx context.Context, query string) (string, error) {
			return "", err
		},
	}
}

// Name implements Backend.
func (m *Mock) Name() string {
	if m.MockName != "" {
		return m.MockName
	}
	return "mock"
}

// Ask calls AskFunc and records the call.
func (m *Mock) Ask(ctx context.Context, query string) (string, error) {
	m.recordCall("Ask", query)
	if m.AskFunc != nil {
		return m.AskFunc(ctx, query)
	}
	return query, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) recordCall(method, query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Query: query, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)
