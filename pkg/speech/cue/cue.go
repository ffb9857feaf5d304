// Package cue plays a short chime before the assistant starts listening.
package cue

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Player plays one mp3 file on demand.
type Player struct {
	path string

	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
}

// New creates a player for the mp3 at path. The file is opened on each
// Play so it may be replaced while running.
func New(path string) *Player {
	return &Player{path: path}
}

// Play decodes the chime and blocks until it has finished playing.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("cue: open %s: %w", p.path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("cue: decode %s: %w", p.path, err)
	}
	defer streamer.Close()

	p.initOnce.Do(func() {
		p.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return fmt.Errorf("cue: init speaker: %w", p.initErr)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
