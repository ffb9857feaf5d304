package online

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when an API key is required but missing.
	ErrNoAPIKey = errors.New("online: API key required")

	// ErrNoModel is returned when a model name is required but missing.
	ErrNoModel = errors.New("online: model required")

	// ErrNoBackend is returned when a chain is built with no backends.
	ErrNoBackend = errors.New("online: no backend available")

	// ErrEmptyResponse is returned when a backend answers without text.
	ErrEmptyResponse = errors.New("online: response contained no text")
)

// ProviderError wraps an error with backend context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("online [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError aggregates errors from all backends in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "online chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("online chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("online chain: all %d backends failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns every backend error so errors.Is sees all of them.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}
