// Package classifier answers queries with a pre-trained offline text
// classifier. A loaded model either produces a label or declines with
// Unknown; a missing or broken model is Unavailable.
package classifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// UnknownLabel is the label a model emits when it cannot classify.
const UnknownLabel = "unknown"

var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("classifier: model not found")

	// ErrInvalidModel is returned when the model file is inconsistent.
	ErrInvalidModel = errors.New("classifier: invalid model")
)

// Model is a loaded text classifier.
type Model interface {
	// Classify returns the best label and its posterior probability.
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}

// Kind tags a Prediction.
type Kind int

const (
	Unavailable Kind = iota
	Unknown
	Label
)

func (k Kind) String() string {
	switch k {
	case Label:
		return "label"
	case Unknown:
		return "unknown"
	default:
		return "unavailable"
	}
}

// Prediction is the outcome of one classification.
type Prediction struct {
	Kind       Kind
	Label      string
	Confidence float64
}

// Responder wraps a Model and maps its output to a Prediction.
type Responder struct {
	model  Model
	logger *slog.Logger
}

// NewResponder wraps m. A nil model yields a responder that is always
// Unavailable.
func NewResponder(m Model) *Responder {
	return &Responder{
		model:  m,
		logger: slog.Default().With("component", "classifier.responder"),
	}
}

// Predict classifies query. It never returns an error: inference failures
// are reported as Unavailable.
func (r *Responder) Predict(ctx context.Context, query string) Prediction {
	if r == nil || r.model == nil {
		return Prediction{Kind: Unavailable}
	}

	label, conf, err := r.model.Classify(ctx, query)
	if err != nil {
		r.logger.Warn("classification failed", "error", err)
		return Prediction{Kind: Unavailable}
	}

	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, UnknownLabel) {
		return Prediction{Kind: Unknown, Confidence: conf}
	}

	r.logger.Debug("classified", "label", label, "confidence", conf)
	return Prediction{Kind: Label, Label: label, Confidence: conf}
}
