// Package live runs continuous object detection on camera frames and
// announces what it sees, rate-limited by a cooldown.
//
// The camera is opened inside the worker goroutine and released by defer,
// so it is freed on normal exit, on Stop, and on panic. Stop cancels the
// worker's context, which the loop checks once per frame.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("live: already running")

	// ErrNotRunning is returned by Stop when no session is active.
	ErrNotRunning = errors.New("live: not running")

	// ErrStopTimeout is returned when the worker does not exit in time.
	ErrStopTimeout = errors.New("live: worker did not stop in time")
)

// FrameSource yields encoded camera frames.
type FrameSource interface {
	Frame() ([]byte, error)
	Close() error
}

// OpenFunc acquires a frame source.
type OpenFunc func() (FrameSource, error)

// Detector reduces a frame to the distinct labels it contains, most
// relevant first.
type Detector interface {
	DetectLabels(frame []byte) ([]string, error)
}

// Announcer delivers an announcement, typically by speaking it.
type Announcer func(ctx context.Context, text string)

// Announcement is the sentence spoken for a detected label.
func Announcement(label string) string {
	return fmt.Sprintf("I see a %s. What would you like to do?", label)
}

// Config holds loop timing.
type Config struct {
	FrameInterval time.Duration // pause between frames
	RetryDelay    time.Duration // pause after a failed grab
	Cooldown      time.Duration // minimum gap between announcements
	StopTimeout   time.Duration // how long Stop waits for the worker
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 500 * time.Millisecond,
		RetryDelay:    time.Second,
		Cooldown:      5 * time.Second,
		StopTimeout:   5 * time.Second,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithConfig replaces the loop timing.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.config = cfg }
}

// WithObserver registers a callback for every non-empty detection, before
// the cooldown is applied.
func WithObserver(fn func(labels []string)) Option {
	return func(s *Session) { s.observe = fn }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l.With("component", "live.session") }
}

// Session owns at most one running detection worker.
type Session struct {
	open     OpenFunc
	detector Detector
	announce Announcer
	observe  func(labels []string)
	config   Config
	cooldown *Cooldown
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle session.
func New(open OpenFunc, detector Detector, announce Announcer, opts ...Option) *Session {
	s := &Session{
		open:     open,
		detector: detector,
		announce: announce,
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "live.session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cooldown = NewCooldown(s.config.Cooldown)
	return s
}

// Cooldown exposes the announcement limiter, e.g. to inject a clock.
func (s *Session) Cooldown() *Cooldown {
	return s.cooldown
}

// Running reports whether a worker is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

func (s *Session) runningLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Start launches the worker. It returns once the frame source is open, or
// with the open error if it could not be acquired.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		return ErrAlreadyRunning
	}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	opened := make(chan error, 1)

	go s.run(wctx, opened, done)

	if err := <-opened; err != nil {
		cancel()
		<-done
		return err
	}

	s.cancel = cancel
	s.done = done
	s.cooldown.Reset()
	s.logger.Info("live assistance started")
	return nil
}

// Stop cancels the worker and waits up to StopTimeout for it to release
// the camera. After ErrStopTimeout the session keeps reporting Running
// until the worker exits, so Start cannot open a second source meanwhile.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runningLocked() {
		s.cancel, s.done = nil, nil
		return ErrNotRunning
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	select {
	case <-s.done:
		s.done = nil
		s.logger.Info("live assistance stopped")
		return nil
	case <-time.After(s.config.StopTimeout):
		s.logger.Warn("live worker still running after stop", "timeout", s.config.StopTimeout)
		return ErrStopTimeout
	}
}

func (s *Session) run(ctx context.Context, opened chan<- error, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("live worker panicked", "panic", r)
			select {
			case opened <- fmt.Errorf("live: worker panicked: %v", r):
			default:
			}
		}
	}()

	src, err := s.open()
	if err != nil {
		opened <- err
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Warn("frame source close failed", "error", err)
		}
	}()

	opened <- nil

	for ctx.Err() == nil {
		frame, err := src.Frame()
		if err != nil {
			s.logger.Warn("frame grab failed", "error", err)
			sleep(ctx, s.config.RetryDelay)
			continue
		}

		labels, err := s.detector.DetectLabels(frame)
		if err != nil {
			s.logger.Warn("detection failed", "error", err)
		} else if len(labels) > 0 {
			if s.observe != nil {
				s.observe(labels)
			}
			if s.cooldown.Allow() {
				s.logger.Info("announcing", "label", labels[0], "labels", labels)
				s.announce(ctx, Announcement(labels[0]))
			}
		}

		sleep(ctx, s.config.FrameInterval)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
