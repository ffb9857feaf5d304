package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// inboundLimit caps frames read from dashboard peers, which only send
// pongs and close frames.
const inboundLimit = 4 * 1024

// Conn is the part of a websocket connection a Client drives.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Keepalive controls liveness checks on a connection.
type Keepalive struct {
	WriteWait time.Duration // deadline for one frame write
	PongWait  time.Duration // peer silence tolerated before dropping it
}

// DefaultKeepalive returns the timings used by NewClient.
func DefaultKeepalive() Keepalive {
	return Keepalive{
		WriteWait: 10 * time.Second,
		PongWait:  60 * time.Second,
	}
}

// pingEvery leaves the peer a tenth of PongWait to answer.
func (k Keepalive) pingEvery() time.Duration {
	return k.PongWait * 9 / 10
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithKeepalive overrides the default keepalive timings.
func WithKeepalive(k Keepalive) ClientOption {
	return func(c *Client) { c.keepalive = k }
}

// Client is one dashboard connection subscribed to a hub.
type Client struct {
	hub       *Hub
	conn      Conn
	send      chan Message
	keepalive Keepalive
	gone      chan struct{}
}

// NewClient subscribes conn to hub. If the hub has already stopped the
// client starts with its queue closed and Run returns after a close frame.
func NewClient(hub *Hub, conn Conn, opts ...ClientOption) *Client {
	c := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan Message, clientBuffer),
		keepalive: DefaultKeepalive(),
		gone:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	hub.attach(c)
	return c
}

// Run serves the connection until the peer leaves or the hub drops the
// client. It returns only after both directions have stopped touching conn,
// so the caller may release the connection afterwards.
func (c *Client) Run() {
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		c.forward()
	}()
	c.drain()
	<-forwarded
}

// drain reads until the connection fails. Reading is what surfaces pongs
// and peer disconnects.
func (c *Client) drain() {
	defer func() {
		close(c.gone)
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(inboundLimit)
	c.extendRead("")
	c.conn.SetPongHandler(c.extendRead)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) extendRead(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(c.keepalive.PongWait))
}

// forward owns every write on conn: queued messages and pings.
func (c *Client) forward() {
	ping := time.NewTicker(c.keepalive.pingEvery())
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var err error
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, nil)
				return
			}
			err = c.write(frameType(msg.Type), msg.Data)
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		case <-c.gone:
			return
		}
		if err != nil {
			c.hub.logger.Debug("client write failed", "error", err)
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.keepalive.WriteWait))
	return c.conn.WriteMessage(kind, data)
}

func frameType(t MessageType) int {
	if t == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
