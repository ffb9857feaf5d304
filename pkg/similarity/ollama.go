package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-srishti/internal/httpc"
)

// Ollama defaults.
const (
	DefaultOllamaURL    = "http://localhost:11434"
	DefaultEmbedModel   = "all-minilm"
	DefaultEmbedTimeout = 60 * time.Second
)

// ErrEmptyEmbedding is returned when the server answers without a vector.
var ErrEmptyEmbedding = errors.New("similarity: empty embedding")

// OllamaEncoder implements Encoder against a local Ollama server.
type OllamaEncoder struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOllamaEncoder creates an encoder. Empty arguments take the defaults.
func NewOllamaEncoder(baseURL, model string) *OllamaEncoder {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultEmbedModel
	}
	return &OllamaEncoder{
		baseURL: baseURL,
		model:   model,
		client:  httpc.NewClient(DefaultEmbedTimeout),
		logger:  slog.Default().With("component", "similarity.ollama", "model", model),
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text.
func (e *OllamaEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("similarity: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("similarity: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity: call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("similarity: ollama returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("similarity: decode response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return out.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts, one request each.
func (e *OllamaEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

// Warmup embeds a probe sentence so the server loads the model into memory.
// It doubles as the load step: a failure here means the tier is unusable.
func (e *OllamaEncoder) Warmup(ctx context.Context) error {
	start := time.Now()
	emb, err := e.Embed(ctx, "warm up")
	if err != nil {
		return err
	}
	e.logger.Info("encoder warm", "dims", len(emb), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// Verify OllamaEncoder implements Encoder at compile time.
var _ Encoder = (*OllamaEncoder)(nil)
