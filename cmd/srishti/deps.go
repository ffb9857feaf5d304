package main

import (
	"context"
	"errors"
	"os"

	"github.com/teslashibe/go-srishti/internal/httpc"
	"github.com/teslashibe/go-srishti/internal/log"
	"github.com/teslashibe/go-srishti/pkg/assistant"
	"github.com/teslashibe/go-srishti/pkg/classifier"
	"github.com/teslashibe/go-srishti/pkg/detection"
	"github.com/teslashibe/go-srishti/pkg/live"
	"github.com/teslashibe/go-srishti/pkg/online"
	"github.com/teslashibe/go-srishti/pkg/similarity"
	"github.com/teslashibe/go-srishti/pkg/speech"
	"github.com/teslashibe/go-srishti/pkg/speech/cue"
	"github.com/teslashibe/go-srishti/pkg/speech/espeak"
	"github.com/teslashibe/go-srishti/pkg/speech/whisper"
)

// buildDeps constructs the concrete adapters for cfg. Optional pieces that
// fail to initialize are logged and left nil so the assistant degrades.
func buildDeps(ctx context.Context, cfg assistant.Config) (assistant.Deps, error) {
	paths := cfg.Paths()
	deps := assistant.Deps{
		Connectivity: httpc.NewChecker(cfg.ProbeURL),
		Logger:       log.L(),
	}

	listener, err := newListener(cfg)
	if err != nil {
		return deps, err
	}
	deps.Listener = listener
	deps.Speaker = newSpeaker(cfg)

	deps.Online = newOnline(ctx, cfg)

	deps.LoadClassifier = func(context.Context) (classifier.Model, error) {
		m, err := classifier.LoadNaiveBayes(paths.Classifier)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	deps.LoadEncoder = func(ctx context.Context) (similarity.Encoder, error) {
		enc := similarity.NewOllamaEncoder(cfg.OllamaURL, cfg.EmbedModel)
		if err := enc.Warmup(ctx); err != nil {
			return nil, err
		}
		return enc, nil
	}

	if det := newDetector(paths.DetectionModel); det != nil {
		deps.Detector = det
	}
	camera := cfg.CameraIndex
	deps.OpenCamera = func() (live.FrameSource, error) {
		cam, err := detection.OpenCamera(camera)
		if err != nil {
			return nil, err
		}
		return cam, nil
	}

	return deps, nil
}

func newListener(cfg assistant.Config) (speech.Listener, error) {
	if cfg.TextMode {
		return speech.NewTextListener(os.Stdin, os.Stdout, "you> "), nil
	}

	l, err := whisper.NewListener(cfg.Paths().WhisperModel)
	if err != nil {
		return nil, err
	}
	beep := cue.New(cfg.Paths().CueSound)
	l.OnListen = func() {
		if err := beep.Play(); err != nil {
			log.Debug("listening cue unavailable", "error", err)
		}
	}
	return l, nil
}

func newSpeaker(cfg assistant.Config) speech.Speaker {
	if cfg.Mute {
		return speech.NewPrintSpeaker(os.Stdout, "srishti> ")
	}
	s, err := espeak.New()
	if err != nil {
		log.Warn("speech synthesis unavailable, printing responses", "error", err)
		return speech.NewPrintSpeaker(os.Stdout, "srishti> ")
	}
	return s
}

// newOnline builds the Gemini-first backend chain. It returns nil when no
// backend could be configured; the assistant then stays offline.
func newOnline(ctx context.Context, cfg assistant.Config) online.Backend {
	logger := log.L()
	var backends []online.Backend

	// Without a key, NewGemini authenticates with application default
	// credentials.
	if cfg.GeminiKey != "" || cfg.GeminiADC {
		g, err := online.NewGemini(ctx, []online.Option{
			online.WithAPIKey(cfg.GeminiKey),
			online.WithModel(cfg.GeminiModel),
			online.WithLogger(logger),
		})
		if err != nil {
			log.Warn("gemini backend unavailable", "error", err)
		} else {
			backends = append(backends, g)
		}
	}

	if cfg.OpenAIKey != "" {
		o, err := online.NewOpenAI([]online.Option{
			online.WithAPIKey(cfg.OpenAIKey),
			online.WithModel(cfg.OpenAIModel),
			online.WithLogger(logger),
		})
		if err != nil {
			log.Warn("openai backend unavailable", "error", err)
		} else {
			backends = append(backends, o)
		}
	}

	chain, err := online.NewChainWithLogger(logger, backends...)
	if err != nil {
		if errors.Is(err, online.ErrNoBackend) {
			log.Info("no online backend configured, running offline only")
		} else {
			log.Warn("online chain unavailable", "error", err)
		}
		return nil
	}
	return chain
}

func newDetector(modelPath string) *detection.YOLODetector {
	if !detection.ModelExists(modelPath) {
		log.Warn("detection model missing, live assistance disabled", "path", modelPath)
		return nil
	}
	cfg := detection.DefaultYOLOConfig()
	cfg.ModelPath = modelPath
	det, err := detection.NewYOLO(cfg)
	if err != nil {
		log.Warn("detection model failed to load", "error", err)
		return nil
	}
	return det
}
