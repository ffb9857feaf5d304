// Srishti - voice assistant with an online chat backend, an offline
// response pipeline, and live camera assistance.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/teslashibe/go-srishti/internal/log"
	"github.com/teslashibe/go-srishti/pkg/assistant"
	"github.com/teslashibe/go-srishti/pkg/web"
)

type options struct {
	envFile  string
	logLevel string
	config   assistant.Config
}

func main() {
	opts := parseFlags()

	envErr := godotenv.Load(opts.envFile)
	level := opts.logLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" && !pflag.CommandLine.Changed("log") {
		level = v
	}
	log.Init(level)
	if envErr != nil && pflag.CommandLine.Changed("env") {
		log.Warn("env file not loaded", "path", opts.envFile, "error", envErr)
	}

	cfg := opts.config
	cfg.LoadEnvConfig(pflag.CommandLine.Changed)
	if err := cfg.Validate(); err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	var dashboard *web.Server
	if cfg.WebAddr != "" {
		dashboard = web.NewServer(cfg.WebAddr)
		deps.Events = dashboard
	}

	app, err := assistant.New(cfg, deps)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if dashboard != nil {
		dashboard.StatusFunc = app.Status
		dashboard.AskFunc = func(ctx context.Context, query string) (string, error) {
			return app.ProcessQuery(ctx, query), nil
		}
		dashboard.StartAsync()
		defer dashboard.Shutdown()
	}

	log.Info("srishti ready", "data_dir", cfg.DataDir, "online", cfg.HasOnline(), "text_mode", cfg.TextMode)

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags into options.
func parseFlags() options {
	cfg := assistant.DefaultConfig()
	var o options

	pflag.StringVarP(&o.envFile, "env", "e", ".env", "Env file path")
	pflag.StringVarP(&o.logLevel, "log", "l", "info", "Log level: debug, info, warn, error")
	pflag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory (overrides SRISHTI_DATA_DIR)")
	pflag.BoolVar(&cfg.TextMode, "text", false, "Read queries from stdin instead of the microphone")
	pflag.BoolVar(&cfg.Mute, "mute", false, "Print responses instead of speaking them")
	pflag.StringVar(&cfg.WebAddr, "web", "", "Dashboard listen address, e.g. :8080 (empty disables)")
	pflag.IntVar(&cfg.CameraIndex, "camera", 0, "Camera device index for live assistance")
	pflag.IntVar(&cfg.InputDevice, "input-device", cfg.InputDevice, "Microphone device index (-1 for default)")
	pflag.StringVar(&cfg.DetectionModel, "yolo-model", "", "YOLO ONNX model path (default <data-dir>/models/yolov8n.onnx)")
	pflag.StringVar(&cfg.ClassifierModel, "classifier-model", "", "Classifier model path (default <data-dir>/models/classifier.json)")
	pflag.StringVar(&cfg.WhisperModel, "whisper-model", "", "Whisper model path (default <data-dir>/models/ggml-base.en.bin)")
	pflag.StringVar(&cfg.OllamaURL, "ollama-url", cfg.OllamaURL, "Ollama server for sentence embeddings")
	pflag.StringVar(&cfg.EmbedModel, "embed-model", cfg.EmbedModel, "Embedding model name")
	pflag.BoolVar(&cfg.GeminiADC, "gemini-adc", false, "Use application default credentials for Gemini when no API key is set")
	pflag.StringVar(&cfg.GeminiModel, "gemini-model", cfg.GeminiModel, "Gemini chat model")
	pflag.StringVar(&cfg.OpenAIModel, "openai-model", cfg.OpenAIModel, "OpenAI fallback chat model")
	pflag.StringVar(&cfg.Language, "language", cfg.Language, "Speech language code")
	pflag.Float64Var(&cfg.Speed, "speed", cfg.Speed, "Speech rate multiplier")
	pflag.DurationVar(&cfg.ListenTimeout, "listen-timeout", cfg.ListenTimeout, "How long to wait for speech to start")
	pflag.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "Similarity threshold (strict)")
	pflag.Parse()

	o.config = cfg
	return o
}
