package online

import (
	"context"
	"log/slog"
)

// Chain tries multiple backends in order until one succeeds.
type Chain struct {
	backends []Backend
	logger   *slog.Logger
}

// NewChain creates a backend chain. At least one backend is required.
func NewChain(backends ...Backend) (*Chain, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackend
	}
	return &Chain{
		backends: backends,
		logger:   slog.Default().With("component", "online.chain"),
	}, nil
}

// NewChainWithLogger creates a backend chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, backends ...Backend) (*Chain, error) {
	chain, err := NewChain(backends...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "online.chain")
	return chain, nil
}

// Name implements Backend.
func (c *Chain) Name() string {
	return "chain"
}

// Ask tries each backend until one answers.
func (c *Chain) Ask(ctx context.Context, query string) (string, error) {
	var errs []error

	for i, b := range c.backends {
		reply, err := b.Ask(ctx, query)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback backend succeeded",
					"backend", b.Name(),
					"backend_index", i,
				)
			}
			return reply, nil
		}

		errs = append(errs, err)
		c.logger.Warn("backend failed, trying next",
			"backend", b.Name(),
			"backend_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &ChainError{Errors: errs}
}

// Close closes all backends.
func (c *Chain) Close() error {
	var lastErr error
	for _, b := range c.backends {
		if err := b.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Backends returns the backends in the chain.
func (c *Chain) Backends() []Backend {
	return c.backends
}

// Verify Chain implements Backend at compile time.
var _ Backend = (*Chain)(nil)
