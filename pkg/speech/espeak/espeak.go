// Package espeak speaks text through the espeak-ng synthesizer.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
srishti_espeak_init(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
}

static int
srishti_espeak_say(const char *text, const char *voice, int rate)
{
	if (!text)
	{ return -1; }

	if (voice && espeak_SetVoiceByName(voice) != EE_OK)
	{ return -2; }

	espeak_SetParameter(espeakRATE, rate, 0);

	if (espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -3; }

	espeak_Synchronize();
	return 0;
}

static void
srishti_espeak_terminate(void)
{
	espeak_Terminate();
}
*/
import "C"

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/teslashibe/go-srishti/pkg/speech"
)

// espeak-ng rate bounds in words per minute.
const (
	normalRate = 175
	minRate    = 80
	maxRate    = 450
)

// Speaker implements speech.Speaker. espeak-ng is process global and not
// reentrant, so calls are serialized.
type Speaker struct {
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

// New initializes espeak-ng for synchronous playback.
func New() (*Speaker, error) {
	if rc := C.srishti_espeak_init(); rc < 0 {
		return nil, fmt.Errorf("espeak: initialize failed: %d", int(rc))
	}
	return &Speaker{
		logger: slog.Default().With("component", "speech.espeak"),
	}, nil
}

// Rate converts a speed multiplier to words per minute.
func Rate(speed float64) int {
	if speed <= 0 {
		speed = 1
	}
	r := int(normalRate * speed)
	if r < minRate {
		return minRate
	}
	if r > maxRate {
		return maxRate
	}
	return r
}

// Speak implements speech.Speaker.
func (s *Speaker) Speak(ctx context.Context, text string, opts speech.SpeakOptions) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return speech.ErrClosed
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	var cvoice *C.char
	if opts.Language != "" {
		cvoice = C.CString(opts.Language)
		defer C.free(unsafe.Pointer(cvoice))
	}

	rate := Rate(opts.Speed)
	s.logger.Debug("speaking", "chars", len(text), "voice", opts.Language, "rate", rate)

	if rc := C.srishti_espeak_say(ctext, cvoice, C.int(rate)); rc != 0 {
		return fmt.Errorf("espeak: say failed: %d", int(rc))
	}
	return nil
}

// Close implements speech.Speaker.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	C.srishti_espeak_terminate()
	return nil
}

// Verify Speaker implements speech.Speaker at compile time.
var _ speech.Speaker = (*Speaker)(nil)
