// Package resolver decides which offline tier answers a query.
//
// Tiers are consulted in priority order on a snapshot of model readiness:
// the trained classifier first, then the similarity matcher. A tier that is
// still loading stops resolution with Loading; a tier that failed or was
// never started is skipped.
package resolver

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-srishti/pkg/classifier"
	"github.com/teslashibe/go-srishti/pkg/dataset"
	"github.com/teslashibe/go-srishti/pkg/loader"
	"github.com/teslashibe/go-srishti/pkg/similarity"
)

// Source exposes a background-loaded handle. loader.Slot satisfies it.
type Source[T any] interface {
	State() loader.State
	Get() (T, bool)
}

// Kind tags an Outcome.
type Kind int

const (
	NoAnswer Kind = iota
	Loading
	Answer
)

func (k Kind) String() string {
	switch k {
	case Answer:
		return "answer"
	case Loading:
		return "loading"
	default:
		return "no_answer"
	}
}

// Tier names reported in Outcome.Tier.
const (
	TierClassifier = "classifier"
	TierSimilarity = "similarity"
)

// Outcome is the single result of Resolve. Text and Tier are set only for
// Answer; Tier is also set for Loading to name the tier that is pending.
type Outcome struct {
	Kind Kind
	Text string
	Tier string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold sets the similarity threshold.
func WithThreshold(t float64) Option {
	return func(r *Resolver) { r.threshold = t }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l.With("component", "resolver") }
}

// Resolver runs the offline fallback policy.
type Resolver struct {
	classifier Source[*classifier.Responder]
	similarity Source[*similarity.Matcher]
	examples   []dataset.Example
	threshold  float64
	logger     *slog.Logger
}

// New creates a resolver over the two model sources and the example pool
// used by the similarity tier.
func New(cls Source[*classifier.Responder], sim Source[*similarity.Matcher], examples []dataset.Example, opts ...Option) *Resolver {
	r := &Resolver{
		classifier: cls,
		similarity: sim,
		examples:   examples,
		threshold:  similarity.DefaultThreshold,
		logger:     slog.Default().With("component", "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the similarity threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Resolve returns exactly one Outcome for query. It never returns an error
// and recovers from panics inside a tier.
func (r *Resolver) Resolve(ctx context.Context, query string) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("resolver tier panicked", "panic", p)
			out = Outcome{Kind: NoAnswer}
		}
	}()

	if r.classifier != nil {
		switch r.classifier.State() {
		case loader.Ready:
			if resp, ok := r.classifier.Get(); ok {
				p := resp.Predict(ctx, query)
				if p.Kind == classifier.Label {
					return Outcome{Kind: Answer, Text: p.Label, Tier: TierClassifier}
				}
				r.logger.Debug("classifier declined", "result", p.Kind)
			}
		case loader.Loading:
			return Outcome{Kind: Loading, Tier: TierClassifier}
		}
	}

	if r.similarity != nil {
		switch r.similarity.State() {
		case loader.Ready:
			if m, ok := r.similarity.Get(); ok {
				match := m.FindBestMatch(ctx, query, r.examples, r.threshold)
				if match.Kind == similarity.Found {
					return Outcome{Kind: Answer, Text: match.Answer, Tier: TierSimilarity}
				}
				r.logger.Debug("similarity declined", "result", match.Kind)
			}
		case loader.Loading:
			return Outcome{Kind: Loading, Tier: TierSimilarity}
		}
	}

	return Outcome{Kind: NoAnswer}
}
