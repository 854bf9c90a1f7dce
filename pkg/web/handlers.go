package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yaJ17/FootTraffic-Analyzer/pkg/engine"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/hub"
)

// StartStreamRequest is the body of POST /api/streams.
type StartStreamRequest struct {
	// ID is optional; a UUID is generated when empty.
	ID string `json:"id"`
	// Source is the video source: file path, device index or URL.
	Source string `json:"source"`
	// Location labels the exported statistics.
	Location string `json:"location"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleListStreams returns the stats of every known stream.
func (s *Server) handleListStreams(c *fiber.Ctx) error {
	return c.JSON(s.registry.List())
}

// handleStartStream launches a new stream pipeline.
func (s *Server) handleStartStream(c *fiber.Ctx) error {
	var req StartStreamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Source == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "source is required",
		})
	}
	if req.Location == "" {
		req.Location = s.DefaultLocation
	}

	id, err := s.registry.Start(req.ID, req.Source, req.Location, engine.DefaultConfig())
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, engine.ErrStreamExists) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       id,
		"location": req.Location,
	})
}

// handleStopStream stops a stream. Stopping is idempotent, so an unknown
// ID still answers 204.
func (s *Server) handleStopStream(c *fiber.Ctx) error {
	if err := s.registry.Stop(c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleStreamStats returns the current statistics of one stream.
func (s *Server) handleStreamStats(c *fiber.Ctx) error {
	stats, err := s.registry.Stats(c.Params("id"))
	if err != nil {
		if errors.Is(err, engine.ErrUnknownStream) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(stats)
}

// handleHistory returns recent exported records for a location, newest
// first. Available only when a database sink is configured.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.History == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "history requires a database sink",
		})
	}

	location := c.Query("location", s.DefaultLocation)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 1000 {
		limit = 50
	}

	records, err := s.History(c.Context(), location, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if records == nil {
		records = []export.Stats{}
	}
	return c.JSON(records)
}

// handleStatsWS streams exported statistics records to the client.
func (s *Server) handleStatsWS(c *websocket.Conn) {
	// Send a snapshot of every stream so the dashboard renders
	// immediately instead of waiting for the next export.
	for _, stats := range s.registry.List() {
		if err := c.WriteJSON(stats); err != nil {
			c.Close()
			return
		}
	}
	hub.NewClient(s.statsHub, c).Run()
}

// handleCameraWS streams JPEG frames to the client.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
