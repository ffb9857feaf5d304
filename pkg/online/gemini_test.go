package online

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGemini(context.Background(),
		[]Option{WithBaseURL(server.URL + "/")},
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

func TestGeminiAsk(t *testing.T) {
	var requests []generativelanguage.GenerateContentRequest

	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/"+DefaultGeminiModel) || !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req generativelanguage.GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Paris."}]}}]}`))
	})

	reply, err := g.Ask(context.Background(), "capital of france")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply != "Paris." {
		t.Errorf("reply = %q", reply)
	}

	if _, err := g.Ask(context.Background(), "and germany"); err != nil {
		t.Fatalf("second Ask: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if n := len(requests[0].Contents); n != 1 {
		t.Errorf("first request carries %d contents, want 1", n)
	}
	second := requests[1].Contents
	if len(second) != 3 {
		t.Fatalf("second request carries %d contents, want 3", len(second))
	}
	if second[1].Role != "model" || second[1].Parts[0].Text != "Paris." {
		t.Errorf("history turn = %+v", second[1])
	}
	if requests[0].SystemInstruction == nil {
		t.Error("expected system instruction")
	}
	if g.History().Len() != 4 {
		t.Errorf("history len = %d", g.History().Len())
	}
}

// writeUserCredentials points application default credentials at an
// authorized-user file whose token endpoint is tokenURL.
func writeUserCredentials(t *testing.T, tokenURL string) {
	t.Helper()
	creds := map[string]string{
		"type":          "authorized_user",
		"client_id":     "test-client",
		"client_secret": "test-secret",
		"refresh_token": "test-refresh",
		"token_uri":     tokenURL,
	}
	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
}

func TestGeminiDefaultCredentials(t *testing.T) {
	var tokenRequests int
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			tokenRequests++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"adc-token","token_type":"Bearer","expires_in":3600}`))
			return
		}
		authHeader = r.Header.Get("Authorization")
		if key := r.URL.Query().Get("key"); key != "" {
			t.Errorf("unexpected API key %q", key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello."}]}}]}`))
	}))
	defer server.Close()

	writeUserCredentials(t, server.URL+"/token")

	g, err := NewGemini(context.Background(), []Option{WithBaseURL(server.URL + "/")})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	reply, err := g.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply != "Hello." {
		t.Errorf("reply = %q", reply)
	}
	if tokenRequests != 1 {
		t.Errorf("token requests = %d, want 1", tokenRequests)
	}
	if authHeader != "Bearer adc-token" {
		t.Errorf("Authorization = %q", authHeader)
	}
}

func TestGeminiDefaultCredentialsMissing(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", filepath.Join(t.TempDir(), "absent.json"))

	_, err := NewGemini(context.Background(), nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGeminiEmptyResponse(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`))
	})

	_, err := g.Ask(context.Background(), "hi")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
	if g.History().Len() != 0 {
		t.Error("failed exchange must not be recorded")
	}
}

func TestGeminiAPIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad request"}}`))
	})

	_, err := g.Ask(context.Background(), "hi")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Provider != "gemini" {
		t.Errorf("expected gemini ProviderError, got %v", err)
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *generativelanguage.GenerateContentResponse
		want string
	}{
		{"nil", nil, ""},
		{"no candidates", &generativelanguage.GenerateContentResponse{}, ""},
		{"joined parts", &generativelanguage.GenerateContentResponse{
			Candidates: []*generativelanguage.Candidate{{
				Content: &generativelanguage.Content{Parts: []*generativelanguage.Part{{Text: "Hello "}, {Text: "world"}}},
			}},
		}, "Hello world"},
		{"skips empty candidate", &generativelanguage.GenerateContentResponse{
			Candidates: []*generativelanguage.Candidate{
				{Content: nil},
				{Content: &generativelanguage.Content{Parts: []*generativelanguage.Part{{Text: "second"}}}},
			},
		}, "second"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := responseText(tc.resp); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
