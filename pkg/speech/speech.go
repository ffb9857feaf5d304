// Package speech defines the voice capture and synthesis interfaces used by
// the assistant loop, along with console implementations for text mode.
//
// Hardware-backed implementations live in subpackages so the core builds
// without audio libraries: whisper (microphone + transcription), espeak
// (synthesis) and cue (listening chime).
package speech

import (
	"context"
	"errors"
	"time"
)

// NoInput is returned by a Listener when nothing intelligible was heard.
const NoInput = "none"

// ErrClosed is returned by Listen after the input source is exhausted.
var ErrClosed = errors.New("speech: input closed")

// Listen defaults.
const (
	DefaultListenTimeout = 5 * time.Second
	DefaultLanguage      = "en"
	DefaultSpeed         = 1.3
)

// ListenOptions tune a single capture.
type ListenOptions struct {
	// Timeout bounds how long to wait for speech to start.
	Timeout time.Duration

	// DeviceIndex selects an input device; negative uses the default.
	DeviceIndex int

	// Language hint for recognition, e.g. "en".
	Language string
}

// DefaultListenOptions returns the options used by the interaction loop.
func DefaultListenOptions() ListenOptions {
	return ListenOptions{
		Timeout:     DefaultListenTimeout,
		DeviceIndex: -1,
		Language:    DefaultLanguage,
	}
}

// Listener captures one utterance and returns its transcript.
type Listener interface {
	// Listen returns the recognized text, or NoInput when recognition
	// failed. A non-nil error means the listener can produce no more
	// input and the loop should end.
	Listen(ctx context.Context, opts ListenOptions) (string, error)

	// Close releases the capture device.
	Close() error
}

// SpeakOptions tune a single synthesis.
type SpeakOptions struct {
	// Language or voice name, e.g. "en-us".
	Language string

	// Speed multiplier; 1.0 is the engine's normal rate.
	Speed float64
}

// Speaker renders text as audio.
type Speaker interface {
	// Speak blocks until playback finishes.
	Speak(ctx context.Context, text string, opts SpeakOptions) error

	// Close releases the output device.
	Close() error
}
