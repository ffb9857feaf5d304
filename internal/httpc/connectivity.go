package httpc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Connectivity probe defaults.
const (
	DefaultProbeURL     = "https://www.google.com"
	DefaultProbeTimeout = 1500 * time.Millisecond

	// maxProbeDrain bounds how much of the probe response body is read.
	maxProbeDrain = 512
)

// Checker reports whether the network is reachable with a single GET.
// There is no retry: a slow or failed probe means offline for this query.
type Checker struct {
	URL     string
	Timeout time.Duration

	client *http.Client
	logger *slog.Logger
}

// NewChecker creates a checker that probes url. Empty url uses DefaultProbeURL.
func NewChecker(url string) *Checker {
	if url == "" {
		url = DefaultProbeURL
	}
	return &Checker{
		URL:     url,
		Timeout: DefaultProbeTimeout,
		client:  NewClient(DefaultProbeTimeout),
		logger:  slog.Default().With("component", "httpc.checker"),
	}
}

// IsConnected performs one GET bounded by the checker timeout.
// Any response, whatever its status, counts as connected.
func (c *Checker) IsConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		c.logger.Warn("bad probe request", "url", c.URL, "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("connectivity probe failed", "error", err)
		return false
	}
	io.CopyN(io.Discard, resp.Body, maxProbeDrain)
	resp.Body.Close()
	return true
}
