package online

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	oaoption "github.com/openai/openai-go/v3/option"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	o, err := NewOpenAI(
		[]Option{WithAPIKey("test-key"), WithBaseURL(server.URL + "/")},
		oaoption.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	return o
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   DefaultOpenAIModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestOpenAIAsk(t *testing.T) {
	var messageCounts []int

	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var body struct {
			Model    string           `json:"model"`
			Messages []map[string]any `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != DefaultOpenAIModel {
			t.Errorf("model = %q", body.Model)
		}
		messageCounts = append(messageCounts, len(body.Messages))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("Four.")))
	})

	reply, err := o.Ask(context.Background(), "two plus two")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply != "Four." {
		t.Errorf("reply = %q", reply)
	}
	if _, err := o.Ask(context.Background(), "times two"); err != nil {
		t.Fatal(err)
	}

	// system + user, then system + user + assistant + user
	if len(messageCounts) != 2 || messageCounts[0] != 2 || messageCounts[1] != 4 {
		t.Errorf("message counts = %v", messageCounts)
	}
}

func TestOpenAIEmptyReply(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("")))
	})

	if _, err := o.Ask(context.Background(), "hi"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIServerError(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := o.Ask(context.Background(), "hi")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Provider != "openai" {
		t.Errorf("expected openai ProviderError, got %v", err)
	}
	if o.History().Len() != 0 {
		t.Error("failed exchange must not be recorded")
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
