package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// TextListener reads one query per line from a reader, for keyboard
// operation without a microphone.
type TextListener struct {
	prompt string
	out    io.Writer

	mu      sync.Mutex
	scanner *bufio.Scanner
	lines   chan string
	once    sync.Once
}

// NewTextListener reads from r and writes prompt to out before each line.
// out may be nil.
func NewTextListener(r io.Reader, out io.Writer, prompt string) *TextListener {
	return &TextListener{
		prompt:  prompt,
		out:     out,
		scanner: bufio.NewScanner(r),
		lines:   make(chan string),
	}
}

func (l *TextListener) pump() {
	go func() {
		defer close(l.lines)
		for l.scanner.Scan() {
			l.lines <- l.scanner.Text()
		}
	}()
}

// Listen implements Listener. Blank lines yield NoInput.
func (l *TextListener) Listen(ctx context.Context, opts ListenOptions) (string, error) {
	l.once.Do(l.pump)

	if l.out != nil && l.prompt != "" {
		l.mu.Lock()
		fmt.Fprint(l.out, l.prompt)
		l.mu.Unlock()
	}

	select {
	case <-ctx.Done():
		return NoInput, ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			return NoInput, ErrClosed
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return NoInput, nil
		}
		return line, nil
	}
}

// Close implements Listener.
func (l *TextListener) Close() error {
	return nil
}

// PrintSpeaker writes responses to a writer instead of the sound card.
type PrintSpeaker struct {
	prefix string
	out    io.Writer
	logger *slog.Logger
	mu     sync.Mutex
}

// NewPrintSpeaker writes each spoken line as prefix+text to out.
func NewPrintSpeaker(out io.Writer, prefix string) *PrintSpeaker {
	return &PrintSpeaker{
		prefix: prefix,
		out:    out,
		logger: slog.Default().With("component", "speech.print"),
	}
}

// Speak implements Speaker.
func (s *PrintSpeaker) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("speak", "text", text, "language", opts.Language, "speed", opts.Speed)
	_, err := fmt.Fprintln(s.out, s.prefix+text)
	return err
}

// Close implements Speaker.
func (s *PrintSpeaker) Close() error {
	return nil
}

// Verify console types implement the interfaces at compile time.
var (
	_ Listener = (*TextListener)(nil)
	_ Speaker  = (*PrintSpeaker)(nil)
)
