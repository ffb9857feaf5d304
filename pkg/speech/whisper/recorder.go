// Package whisper captures speech from a microphone with PortAudio and
// transcribes it locally with whisper.cpp.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Capture parameters. whisper.cpp expects 16 kHz mono float32.
const (
	SampleRate       = 16000
	frameSize        = 320 // 20ms
	frameDuration    = 20 * time.Millisecond
	silenceThreshRMS = 0.015
	trailingSilence  = 600 * time.Millisecond
	maxUtterance     = 10 * time.Second
)

// ErrNoSpeech is returned when the timeout passes before anyone speaks.
var ErrNoSpeech = errors.New("whisper: no speech detected")

// InputDevice returns the input device at index, or the system default
// input when index is negative.
func InputDevice(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("whisper: list devices: %w", err)
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("whisper: device index %d out of range (%d devices)", index, len(devices))
	}
	dev := devices[index]
	if dev.MaxInputChannels < 1 {
		return nil, fmt.Errorf("whisper: device %q has no input channels", dev.Name)
	}
	return dev, nil
}

// record captures one utterance: it waits up to timeout for the signal to
// rise above the silence threshold, then records until trailing silence or
// the maximum utterance length.
func record(ctx context.Context, dev *portaudio.DeviceInfo, timeout time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = SampleRate
	params.FramesPerBuffer = len(buf)

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("whisper: open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("whisper: start stream: %w", err)
	}
	defer stream.Stop()

	var (
		out           = make([]float32, 0, SampleRate*3)
		speaking      bool
		silenceFrames int
		waitFrames    = int(timeout / frameDuration)
		maxFrames     = int(maxUtterance / frameDuration)
		silenceLimit  = int(trailingSilence / frameDuration)
	)

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("whisper: read stream: %w", err)
		}

		loud := frameRMS(buf) > silenceThreshRMS
		switch {
		case loud:
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
		case speaking:
			silenceFrames++
			out = append(out, buf...)
			if silenceFrames >= silenceLimit {
				return out, nil
			}
		case waitFrames > 0 && i >= waitFrames:
			return nil, ErrNoSpeech
		}

		if speaking && len(out) >= maxFrames*frameSize {
			return out, nil
		}
	}
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
