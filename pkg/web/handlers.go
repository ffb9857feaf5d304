package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-srishti/pkg/hub"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse is returned by POST /api/ask.
type AskResponse struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	if s.StatusFunc == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "status not configured",
		})
	}
	return c.JSON(s.StatusFunc())
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	if s.AskFunc == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "assistant not configured",
		})
	}

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}

	response, err := s.AskFunc(c.UserContext(), query)
	if err != nil {
		s.logger.Error("ask failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(AskResponse{Query: query, Response: response})
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	return c.JSON(s.Recent())
}

// handleEventsWS replays the buffered events, then streams new ones.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	for _, e := range s.Recent() {
		if err := c.WriteJSON(e); err != nil {
			return
		}
	}
	hub.NewClient(s.events, c).Run()
}
