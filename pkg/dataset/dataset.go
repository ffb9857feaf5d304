// Package dataset reads the labeled validation examples used by the
// similarity tier and records online exchanges for later retraining.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrCorrupt is returned when a dataset file exists but is not a JSON
// array of examples.
var ErrCorrupt = errors.New("dataset: malformed file")

// Example is one labeled (input, expected_output) pair.
type Example struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// LoadExamples reads a JSON array of examples.
// A missing file yields an empty pool and no error. A malformed file
// yields an empty pool and an error wrapping ErrCorrupt so the caller can
// warn and carry on.
func LoadExamples(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Example{}, nil
		}
		return []Example{}, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return []Example{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	// Entries without an input can never match anything.
	out := make([]Example, 0, len(examples))
	for _, ex := range examples {
		if strings.TrimSpace(ex.Input) == "" {
			continue
		}
		out = append(out, ex)
	}
	return out, nil
}

// TrainingLog appends exchanges to a JSON array file.
type TrainingLog struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewTrainingLog creates a log writing to path.
func NewTrainingLog(path string) *TrainingLog {
	return &TrainingLog{
		path:   path,
		logger: slog.Default().With("component", "dataset.training"),
	}
}

// Append adds one example to the end of the file. A missing or malformed
// file is replaced by a fresh array holding just this example.
func (l *TrainingLog) Append(ex Example) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.read()
	entries = append(entries, ex)

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("dataset: create directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("dataset: marshal: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("dataset: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("dataset: rename temp file: %w", err)
	}
	return nil
}

// Len returns the number of recorded examples.
func (l *TrainingLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.read())
}

func (l *TrainingLog) read() []Example {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var entries []Example
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("training file corrupt, starting fresh", "path", l.path, "error", err)
		return nil
	}
	return entries
}
