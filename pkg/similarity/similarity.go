// Package similarity matches a query against labeled examples by cosine
// similarity of sentence embeddings.
package similarity

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/teslashibe/go-srishti/pkg/dataset"
)

// DefaultThreshold is the minimum similarity a match must strictly exceed.
const DefaultThreshold = 0.6

// ErrNoEncoder is returned when a matcher is built without an encoder.
var ErrNoEncoder = errors.New("similarity: encoder required")

// Encoder turns text into embedding vectors.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Kind tags a Match.
type Kind int

const (
	// Unavailable means the encoder is missing or failed.
	Unavailable Kind = iota
	// Absent means no example scored above the threshold.
	Absent
	// Found means Answer holds the best example's expected output.
	Found
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case Absent:
		return "absent"
	default:
		return "unavailable"
	}
}

// Match is the result of FindBestMatch.
type Match struct {
	Kind   Kind
	Answer string
	Input  string
	Score  float64
}

// Matcher scores queries against examples. Example embeddings are memoized
// by input text, so repeated calls over the same pool encode only the
// query.
type Matcher struct {
	encoder Encoder
	logger  *slog.Logger

	mu   sync.Mutex
	memo map[string][]float32
}

// NewMatcher creates a matcher backed by enc.
func NewMatcher(enc Encoder) (*Matcher, error) {
	if enc == nil {
		return nil, ErrNoEncoder
	}
	return &Matcher{
		encoder: enc,
		logger:  slog.Default().With("component", "similarity.matcher"),
		memo:    make(map[string][]float32),
	}, nil
}

// FindBestMatch returns the example most similar to query if its cosine
// similarity is strictly greater than threshold. Ties at the top score go to
// the example that appears first. It never returns an error: encoder
// failures are reported as Unavailable.
func (m *Matcher) FindBestMatch(ctx context.Context, query string, examples []dataset.Example, threshold float64) Match {
	if m == nil || m.encoder == nil {
		return Match{Kind: Unavailable}
	}
	if len(examples) == 0 {
		return Match{Kind: Absent}
	}

	q, err := m.encoder.Embed(ctx, query)
	if err != nil {
		m.logger.Warn("query embedding failed", "error", err)
		return Match{Kind: Unavailable}
	}

	vecs, err := m.exampleVectors(ctx, examples)
	if err != nil {
		m.logger.Warn("example embedding failed", "error", err)
		return Match{Kind: Unavailable}
	}

	best := -1
	bestScore := threshold
	for i, v := range vecs {
		if s := Cosine(q, v); s > bestScore {
			best, bestScore = i, s
		}
	}

	if best < 0 {
		return Match{Kind: Absent}
	}
	m.logger.Debug("similarity match", "input", examples[best].Input, "score", bestScore)
	return Match{
		Kind:   Found,
		Answer: examples[best].ExpectedOutput,
		Input:  examples[best].Input,
		Score:  bestScore,
	}
}

// Warm encodes every example ahead of the first query.
func (m *Matcher) Warm(ctx context.Context, examples []dataset.Example) error {
	_, err := m.exampleVectors(ctx, examples)
	return err
}

func (m *Matcher) exampleVectors(ctx context.Context, examples []dataset.Example) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var missing []string
	seen := make(map[string]bool)
	for _, ex := range examples {
		if _, ok := m.memo[ex.Input]; !ok && !seen[ex.Input] {
			missing = append(missing, ex.Input)
			seen[ex.Input] = true
		}
	}

	if len(missing) > 0 {
		embs, err := m.encoder.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(embs) != len(missing) {
			return nil, errors.New("similarity: encoder returned wrong number of embeddings")
		}
		for i, text := range missing {
			m.memo[text] = embs[i]
		}
	}

	out := make([][]float32, len(examples))
	for i, ex := range examples {
		out[i] = m.memo[ex.Input]
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when the vectors
// differ in length or either has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
