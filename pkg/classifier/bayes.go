package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
)

// NaiveBayes is a multinomial naive Bayes model exported as JSON by the
// offline trainer.
//
//	{
//	  "labels": ["greeting", "time"],
//	  "vocabulary": {"hello": 0, "time": 1},
//	  "class_log_prior": [-0.69, -0.69],
//	  "feature_log_prob": [[-0.2, -1.9], [-1.9, -0.2]],
//	  "min_confidence": 0.5
//	}
type NaiveBayes struct {
	Labels         []string       `json:"labels"`
	Vocabulary     map[string]int `json:"vocabulary"`
	ClassLogPrior  []float64      `json:"class_log_prior"`
	FeatureLogProb [][]float64    `json:"feature_log_prob"`

	// MinConfidence below which the model answers UnknownLabel.
	MinConfidence float64 `json:"min_confidence"`
}

// LoadNaiveBayes reads and validates a model file.
func LoadNaiveBayes(path string) (*NaiveBayes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("classifier: read %s: %w", path, err)
	}

	var m NaiveBayes
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every table agrees on the label and vocabulary sizes.
func (m *NaiveBayes) Validate() error {
	n := len(m.Labels)
	if n == 0 {
		return fmt.Errorf("%w: no labels", ErrInvalidModel)
	}
	if len(m.ClassLogPrior) != n {
		return fmt.Errorf("%w: %d priors for %d labels", ErrInvalidModel, len(m.ClassLogPrior), n)
	}
	if len(m.FeatureLogProb) != n {
		return fmt.Errorf("%w: %d feature rows for %d labels", ErrInvalidModel, len(m.FeatureLogProb), n)
	}
	for i, row := range m.FeatureLogProb {
		if len(row) != len(m.Vocabulary) {
			return fmt.Errorf("%w: row %d has %d features, vocabulary has %d",
				ErrInvalidModel, i, len(row), len(m.Vocabulary))
		}
	}
	for word, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.Vocabulary) {
			return fmt.Errorf("%w: index %d for %q out of range", ErrInvalidModel, idx, word)
		}
	}
	return nil
}

// Classify implements Model.
func (m *NaiveBayes) Classify(ctx context.Context, text string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	counts := make(map[int]int)
	for _, tok := range Tokenize(text) {
		if idx, ok := m.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return UnknownLabel, 0, nil
	}

	scores := make([]float64, len(m.Labels))
	best := 0
	for c := range m.Labels {
		s := m.ClassLogPrior[c]
		for idx, n := range counts {
			s += float64(n) * m.FeatureLogProb[c][idx]
		}
		scores[c] = s
		if s > scores[best] {
			best = c
		}
	}

	// Posterior of the winner: 1 / sum(exp(s_j - s_best)).
	var denom float64
	for _, s := range scores {
		denom += math.Exp(s - scores[best])
	}
	conf := 1 / denom

	if conf < m.MinConfidence {
		return UnknownLabel, conf, nil
	}
	return m.Labels[best], conf, nil
}

// Tokenize lower-cases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Verify NaiveBayes implements Model at compile time.
var _ Model = (*NaiveBayes)(nil)
