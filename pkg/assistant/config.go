// Package assistant is the foreground interaction loop: it listens for a
// query, decides between the online backend and the offline pipeline,
// speaks the answer, and drives live camera assistance.
package assistant

import (
	"os"
	"strconv"
	"time"

	"github.com/teslashibe/go-srishti/internal/config"
	"github.com/teslashibe/go-srishti/internal/httpc"
	"github.com/teslashibe/go-srishti/pkg/online"
	"github.com/teslashibe/go-srishti/pkg/similarity"
	"github.com/teslashibe/go-srishti/pkg/speech"
)

// Config holds all configuration for the assistant.
// Flag parsing is done in cmd/srishti; this struct is data only.
type Config struct {
	// DataDir is the root of the on-disk layout (cache, datasets, models).
	DataDir string

	// Model file overrides. Empty means the default location under DataDir.
	ClassifierModel string
	DetectionModel  string
	WhisperModel    string
	CueSound        string

	// Interaction modes.
	TextMode bool // read queries from stdin
	Mute     bool // print responses instead of speaking them

	// Speech.
	Language      string
	Speed         float64
	ListenTimeout time.Duration
	InputDevice   int // -1 selects the default microphone

	// Offline pipeline.
	Threshold  float64
	OllamaURL  string
	EmbedModel string

	// Online backends.
	GeminiKey   string
	GeminiADC   bool // authenticate Gemini with application default credentials
	GeminiModel string
	OpenAIKey   string
	OpenAIModel string
	ProbeURL    string

	// Live assistance.
	CameraIndex int

	// WebAddr enables the dashboard when non-empty.
	WebAddr string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:       config.DefaultDataDir,
		Language:      speech.DefaultLanguage,
		Speed:         speech.DefaultSpeed,
		ListenTimeout: speech.DefaultListenTimeout,
		InputDevice:   -1,
		Threshold:     similarity.DefaultThreshold,
		OllamaURL:     similarity.DefaultOllamaURL,
		EmbedModel:    similarity.DefaultEmbedModel,
		GeminiModel:   online.DefaultGeminiModel,
		OpenAIModel:   online.DefaultOpenAIModel,
		ProbeURL:      httpc.DefaultProbeURL,
	}
}

// LoadEnvConfig applies environment overrides. Call it after flag parsing.
// explicit reports whether a flag was set on the command line; settings
// named by an explicit flag keep their flag value. A nil explicit treats
// every flag as unset.
func (c *Config) LoadEnvConfig(explicit func(flag string) bool) {
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	if !explicit("data-dir") {
		c.DataDir = config.DataDir(c.DataDir)
	}
	c.GeminiKey = os.Getenv("GEMINI_API_KEY")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		c.GeminiADC = true
	}

	if !explicit("ollama-url") && (c.OllamaURL == "" || c.OllamaURL == similarity.DefaultOllamaURL) {
		c.OllamaURL = config.Env("OLLAMA_URL", similarity.DefaultOllamaURL)
	}
	if v := os.Getenv("SRISHTI_THRESHOLD"); v != "" && !explicit("threshold") {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = t
		}
	}
}

// Paths resolves file locations, applying per-file overrides.
func (c *Config) Paths() config.Paths {
	p := config.Resolve(c.DataDir)
	if c.ClassifierModel != "" {
		p.Classifier = c.ClassifierModel
	}
	if c.DetectionModel != "" {
		p.DetectionModel = c.DetectionModel
	}
	if c.WhisperModel != "" {
		p.WhisperModel = c.WhisperModel
	}
	if c.CueSound != "" {
		p.CueSound = c.CueSound
	}
	return p
}

// Validate checks that the configuration is usable. API keys are optional:
// without them the assistant runs offline only.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return &ConfigError{Field: "DataDir", Message: "data directory is required"}
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return &ConfigError{Field: "Threshold", Message: "similarity threshold must be between 0 and 1"}
	}
	if c.Speed <= 0 {
		return &ConfigError{Field: "Speed", Message: "speech speed must be positive"}
	}
	if c.ListenTimeout <= 0 {
		return &ConfigError{Field: "ListenTimeout", Message: "listen timeout must be positive"}
	}
	return nil
}

// HasOnline reports whether any online backend can be configured.
func (c *Config) HasOnline() bool {
	return c.GeminiKey != "" || c.GeminiADC || c.OpenAIKey != ""
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
