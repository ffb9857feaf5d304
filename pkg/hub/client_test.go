package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type frame struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu     sync.Mutex
	frames []frame
	limit  int64
	pong   func(string) error

	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return errors.New("connection closed")
	default:
	}
	f.frames = append(f.frames, frame{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) SetReadLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pong = h
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) written() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.frames...)
}

func waitForFrames(t *testing.T, conn *fakeConn, n int) []frame {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if frames := conn.written(); len(frames) >= n {
			return frames
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d frames, got %d", n, len(conn.written()))
	return nil
}

func runClient(c *Client) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		c.Run()
	}()
	return finished
}

func waitFinished(t *testing.T, finished <-chan struct{}) {
	t.Helper()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return")
	}
}

func TestClientForwardsFrames(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()
	c := NewClient(h, conn)
	finished := runClient(c)

	waitForCount(t, h, 1)
	h.Broadcast(NewJSONMessage([]byte(`{"type":"info"}`)))
	h.BroadcastBinary([]byte{1, 2})

	frames := waitForFrames(t, conn, 2)
	if frames[0].kind != websocket.TextMessage || string(frames[0].data) != `{"type":"info"}` {
		t.Errorf("first frame = %d %q", frames[0].kind, frames[0].data)
	}
	if frames[1].kind != websocket.BinaryMessage || len(frames[1].data) != 2 {
		t.Errorf("second frame = %d %v", frames[1].kind, frames[1].data)
	}

	conn.mu.Lock()
	limit, pong := conn.limit, conn.pong
	conn.mu.Unlock()
	if limit != inboundLimit {
		t.Errorf("read limit = %d, want %d", limit, inboundLimit)
	}
	if pong == nil {
		t.Error("pong handler not installed")
	}

	conn.Close()
	waitFinished(t, finished)
	waitForCount(t, h, 0)
}

func TestClientClosesWhenHubStops(t *testing.T) {
	h, cancel := startHub(t)
	conn := newFakeConn()
	c := NewClient(h, conn)
	finished := runClient(c)

	waitForCount(t, h, 1)
	cancel()

	waitFinished(t, finished)
	frames := conn.written()
	if len(frames) == 0 || frames[len(frames)-1].kind != websocket.CloseMessage {
		t.Errorf("expected a close frame, got %v", frames)
	}
}

func TestClientAfterHubStopped(t *testing.T) {
	h, cancel := startHub(t)
	cancel()
	<-h.Done()

	conn := newFakeConn()
	finished := runClient(NewClient(h, conn))
	waitFinished(t, finished)
}

func TestClientSendsPings(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()
	c := NewClient(h, conn, WithKeepalive(Keepalive{WriteWait: time.Second, PongWait: 20 * time.Millisecond}))
	finished := runClient(c)

	frames := waitForFrames(t, conn, 1)
	if frames[0].kind != websocket.PingMessage {
		t.Errorf("frame kind = %d, want ping", frames[0].kind)
	}

	conn.Close()
	waitFinished(t, finished)
}
