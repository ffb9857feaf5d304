package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/gordonklaus/portaudio"

	"github.com/teslashibe/go-srishti/pkg/speech"
)

// Listener implements speech.Listener over the microphone.
type Listener struct {
	model   whisper.Model
	threads int
	logger  *slog.Logger

	// OnListen runs right before capture starts, e.g. to play a cue.
	OnListen func()

	mu     sync.Mutex
	closed bool
}

// NewListener initializes PortAudio and loads the whisper model at
// modelPath. Close releases both.
func NewListener(modelPath string) (*Listener, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: empty model path")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("whisper: init audio: %w", err)
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("whisper: load model: %w", err)
	}
	return &Listener{
		model:   m,
		threads: runtime.NumCPU(),
		logger:  slog.Default().With("component", "speech.whisper"),
	}, nil
}

// Listen implements speech.Listener. Any capture or recognition failure
// yields speech.NoInput; only cancellation and Close return an error.
func (l *Listener) Listen(ctx context.Context, opts speech.ListenOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return speech.NoInput, speech.ErrClosed
	}

	dev, err := InputDevice(opts.DeviceIndex)
	if err != nil {
		l.logger.Warn("no input device", "index", opts.DeviceIndex, "error", err)
		return speech.NoInput, nil
	}

	if l.OnListen != nil {
		l.OnListen()
	}
	l.logger.Info("listening", "device", dev.Name)

	pcm, err := record(ctx, dev, opts.Timeout)
	if err != nil {
		if ctx.Err() != nil {
			return speech.NoInput, ctx.Err()
		}
		if !errors.Is(err, ErrNoSpeech) {
			l.logger.Warn("capture failed", "error", err)
		}
		return speech.NoInput, nil
	}

	text, err := l.transcribe(ctx, pcm, opts.Language)
	if err != nil {
		if ctx.Err() != nil {
			return speech.NoInput, ctx.Err()
		}
		l.logger.Warn("recognition failed", "error", err)
		return speech.NoInput, nil
	}
	if text == "" {
		return speech.NoInput, nil
	}

	l.logger.Info("heard", "text", text)
	return text, nil
}

func (l *Listener) transcribe(ctx context.Context, pcm []float32, language string) (string, error) {
	wctx, err := l.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}

	if language == "" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	wctx.SetThreads(uint(l.threads))

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return cleanTranscript(strings.Join(parts, " ")), nil
}

// cleanTranscript drops whisper's non-speech markers such as "[BLANK_AUDIO]"
// or "(music)" and collapses whitespace.
func cleanTranscript(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '(':
			depth++
			continue
		case ']', ')':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Close implements speech.Listener.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.model.Close()
	portaudio.Terminate()
	return err
}

// Verify Listener implements speech.Listener at compile time.
var _ speech.Listener = (*Listener)(nil)
