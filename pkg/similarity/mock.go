package similarity

import (
	"context"
	"fmt"
	"sync"
)

// Mock implements Encoder for testing.
type Mock struct {
	// Vectors maps text to its embedding. Unmapped text embeds to a zero
	// vector of length Dims.
	Vectors map[string][]float32
	Dims    int

	// EmbedFunc overrides the Vectors lookup when set.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	calls []string
}

// NewMock creates a mock encoder from a lookup table.
func NewMock(vectors map[string][]float32) *Mock {
	dims := 0
	for _, v := range vectors {
		dims = len(v)
		break
	}
	return &Mock{Vectors: vectors, Dims: dims}
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, err
		},
	}
}

// Embed records the call and returns the mapped vector.
func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return make([]float32, m.Dims), nil
}

// EmbedBatch embeds each text in turn.
func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Calls returns every text embedded so far.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Embed calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Verify Mock implements Encoder at compile time.
var _ Encoder = (*Mock)(nil)
