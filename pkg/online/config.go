package online

import (
	"log/slog"
	"time"
)

// Default models.
const (
	DefaultGeminiModel = "gemini-2.5-pro"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// DefaultSystemPrompt frames every conversation.
const DefaultSystemPrompt = "You are Srishti, a helpful voice assistant. " +
	"Answer in one to three short spoken sentences without markdown."

// Config holds backend configuration.
type Config struct {
	// Connection
	BaseURL string // API base URL; empty uses the provider default
	APIKey  string

	// Model and prompt
	Model        string
	SystemPrompt string

	// Conversation turns kept for context (0 keeps all)
	MaxHistory int

	// Request timeout applied to every Ask
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSystemPrompt sets the system instruction.
func WithSystemPrompt(p string) Option {
	return func(c *Config) { c.SystemPrompt = p }
}

// WithMaxHistory bounds the conversation history.
func WithMaxHistory(n int) Option {
	return func(c *Config) { c.MaxHistory = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults shared by all backends. Model is left
// empty so each constructor fills in its own.
func DefaultConfig() *Config {
	return &Config{
		SystemPrompt: DefaultSystemPrompt,
		MaxHistory:   40,
		Timeout:      30 * time.Second,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
