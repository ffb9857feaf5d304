package online

import (
	"context"
	"errors"
	"testing"
)

func TestChainFallback(t *testing.T) {
	failing := WithError(errors.New("backend 1 failed"))
	working := NewMock("From working backend")

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("Failed to create chain: %v", err)
	}
	defer chain.Close()

	reply, err := chain.Ask(context.Background(), "test")
	if err != nil {
		t.Fatalf("Chain ask failed: %v", err)
	}
	if reply != "From working backend" {
		t.Errorf("Unexpected reply: %s", reply)
	}
	if failing.CallCount("Ask") != 1 || working.CallCount("Ask") != 1 {
		t.Errorf("expected one call each, got %d and %d", failing.CallCount("Ask"), working.CallCount("Ask"))
	}
}

func TestChainFirstWins(t *testing.T) {
	first := NewMock("first")
	second := NewMock("second")

	chain, _ := NewChain(first, second)
	reply, err := chain.Ask(context.Background(), "q")
	if err != nil || reply != "first" {
		t.Fatalf("got %q, %v", reply, err)
	}
	if second.CallCount("Ask") != 0 {
		t.Error("second backend should not be called")
	}
}

func TestChainAllFail(t *testing.T) {
	errKey := ErrNoAPIKey
	p1 := WithError(WrapError("a", errKey))
	p2 := WithError(errors.New("backend 2 failed"))

	chain, _ := NewChain(p1, p2)
	defer chain.Close()

	_, err := chain.Ask(context.Background(), "test")
	if err == nil {
		t.Fatal("Expected error when all backends fail")
	}

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("Expected ChainError, got %T", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(chainErr.Errors))
	}
	if !errors.Is(err, ErrNoAPIKey) {
		t.Error("ChainError should expose every wrapped error")
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p1 := &Mock{AskFunc: func(ctx context.Context, q string) (string, error) {
		cancel()
		return "", errors.New("interrupted")
	}}
	p2 := NewMock("never")

	chain, _ := NewChain(p1, p2)
	if _, err := chain.Ask(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if p2.CallCount("Ask") != 0 {
		t.Error("chain should stop after cancellation")
	}
}

func TestNewChainEmpty(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory(4)
	id := h.ID()
	if id == "" {
		t.Fatal("expected session id")
	}

	h.Record("q1", "a1")
	h.Record("q2", "a2")
	h.Record("q3", "a3")

	turns := h.Snapshot()
	if len(turns) != 4 {
		t.Fatalf("expected history bounded to 4 turns, got %d", len(turns))
	}
	if turns[0].Text != "q2" || turns[0].Role != RoleUser {
		t.Errorf("oldest kept turn = %+v", turns[0])
	}
	if turns[3].Text != "a3" || turns[3].Role != RoleModel {
		t.Errorf("newest turn = %+v", turns[3])
	}

	h.Reset()
	if h.Len() != 0 {
		t.Error("Reset should clear turns")
	}
	if h.ID() == id {
		t.Error("Reset should start a new session")
	}
}

func TestErrorMessages(t *testing.T) {
	err := WrapError("gemini", ErrEmptyResponse)
	if err.Error() != "online [gemini]: online: response contained no text" {
		t.Errorf("unexpected message: %s", err)
	}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Error("ProviderError should unwrap")
	}
	if WrapError("x", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}
}
