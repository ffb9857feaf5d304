package speech

import (
	"context"
	"sync"
)

// MockListener replays scripted utterances, then reports ErrClosed.
type MockListener struct {
	// ListenFunc overrides the script when set.
	ListenFunc func(ctx context.Context, opts ListenOptions) (string, error)

	mu     sync.Mutex
	script []string
	calls  int
}

// NewMockListener returns a listener that yields each utterance in order.
func NewMockListener(utterances ...string) *MockListener {
	return &MockListener{script: utterances}
}

// Listen implements Listener.
func (m *MockListener) Listen(ctx context.Context, opts ListenOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	if m.ListenFunc != nil {
		m.mu.Unlock()
		return m.ListenFunc(ctx, opts)
	}
	defer m.mu.Unlock()

	if len(m.script) == 0 {
		return NoInput, ErrClosed
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, nil
}

// CallCount returns how many times Listen ran.
func (m *MockListener) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close implements Listener.
func (m *MockListener) Close() error {
	return nil
}

// MockSpeaker records everything it is asked to say.
type MockSpeaker struct {
	// SpeakFunc is called after recording when set.
	SpeakFunc func(ctx context.Context, text string, opts SpeakOptions) error

	mu     sync.Mutex
	spoken []string
	opts   []SpeakOptions
	closed bool
}

// NewMockSpeaker creates an empty recording speaker.
func NewMockSpeaker() *MockSpeaker {
	return &MockSpeaker{}
}

// Speak implements Speaker.
func (m *MockSpeaker) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text, opts)
	}
	return nil
}

// Spoken returns every utterance so far.
func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// Last returns the most recent utterance, or "".
func (m *MockSpeaker) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.spoken) == 0 {
		return ""
	}
	return m.spoken[len(m.spoken)-1]
}

// LastOptions returns the options of the most recent utterance.
func (m *MockSpeaker) LastOptions() SpeakOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return SpeakOptions{}
	}
	return m.opts[len(m.opts)-1]
}

// Reset forgets recorded utterances.
func (m *MockSpeaker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = nil
	m.opts = nil
}

// Closed reports whether Close was called.
func (m *MockSpeaker) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close implements Speaker.
func (m *MockSpeaker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Verify mocks implement the interfaces at compile time.
var (
	_ Listener = (*MockListener)(nil)
	_ Speaker  = (*MockSpeaker)(nil)
)
