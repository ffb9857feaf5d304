// Package web serves the assistant's status dashboard: a small JSON API
// plus a websocket stream of conversation and detection events.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-srishti/pkg/hub"
)

const maxEvents = 200

// Event types published to dashboard clients.
const (
	EventQuery     = "query"
	EventResponse  = "response"
	EventDetection = "detection"
	EventInfo      = "info"
)

// Status is the snapshot returned by GET /api/status.
type Status struct {
	Online       bool              `json:"online"`
	Models       map[string]string `json:"models"`
	LiveRunning  bool              `json:"live_running"`
	CacheSize    int               `json:"cache_size"`
	LastQuery    string            `json:"last_query,omitempty"`
	LastResponse string            `json:"last_response,omitempty"`
}

// Event is one dashboard log line.
type Event struct {
	Time    string   `json:"time"`
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Source  string   `json:"source,omitempty"`
	Labels  []string `json:"labels,omitempty"`
}

// Server is the dashboard HTTP server.
type Server struct {
	app    *fiber.App
	addr   string
	events *hub.Hub
	cancel context.CancelFunc
	logger *slog.Logger

	recent   []Event
	recentMu sync.RWMutex

	// StatusFunc builds the current status. Required for /api/status.
	StatusFunc func() Status

	// AskFunc runs a text query. Required for /api/ask.
	AskFunc func(ctx context.Context, query string) (string, error)
}

// NewServer creates a dashboard bound to addr (host:port or :port).
// The event hub starts immediately; call Shutdown to release it.
func NewServer(addr string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:   addr,
		events: hub.New("events"),
		cancel: cancel,
		logger: slog.Default().With("component", "web.server"),
		recent: make([]Event, 0, maxEvents),
	}
	go s.events.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:               "Srishti Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/ask", s.handleAsk)
	api.Get("/events", s.handleEvents)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start listens and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync runs Start in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard stopped", "error", err)
		}
	}()
}

// Publish records an event and broadcasts it to websocket clients.
func (s *Server) Publish(e Event) {
	if e.Time == "" {
		e.Time = time.Now().Format(time.TimeOnly)
	}

	s.recentMu.Lock()
	s.recent = append(s.recent, e)
	if len(s.recent) > maxEvents {
		s.recent = s.recent[1:]
	}
	s.recentMu.Unlock()

	if err := s.events.BroadcastJSON(e); err != nil {
		s.logger.Warn("event encode failed", "error", err)
	}
}

// Recent returns a copy of the buffered events, oldest first.
func (s *Server) Recent() []Event {
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()
	out := make([]Event, len(s.recent))
	copy(out, s.recent)
	return out
}

// Shutdown stops the event hub and the HTTP server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
