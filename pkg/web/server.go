// Package web provides the HTTP API and live dashboard feeds for the
// foot traffic analyzer.
package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/engine"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/hub"
)

// StreamRegistry is the subset of the engine registry the server needs.
type StreamRegistry interface {
	Start(id, identifier, location string, cfg engine.Config) (string, error)
	Stop(id string) error
	Stats(id string) (engine.StreamStats, error)
	List() []engine.StreamStats
}

// Server is the API and websocket server. It also implements export.Sink:
// registered as a sink, it pushes every exported statistics record to the
// connected dashboard clients.
type Server struct {
	app  *fiber.App
	port string

	registry StreamRegistry

	// DefaultLocation labels streams started without a location.
	DefaultLocation string

	// History serves GET /api/history when set; left nil, the endpoint
	// answers 501. The analyzer wires it to the database sink.
	History func(ctx context.Context, location string, limit int) ([]export.Stats, error)

	// Hubs for websocket broadcast
	statsHub  *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the server over the given registry.
func NewServer(port string, registry StreamRegistry) *Server {
	s := &Server{
		port:            port,
		registry:        registry,
		DefaultLocation: "Divisoria",
		statsHub:        hub.New("stats"),
		cameraHub:       hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Foot Traffic Analyzer",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	app.Get("/healthz", s.handleHealth)

	// API routes
	api := app.Group("/api")
	api.Get("/streams", s.handleListStreams)
	api.Post("/streams", s.handleStartStream)
	api.Delete("/streams/:id", s.handleStopStream)
	api.Get("/streams/:id/stats", s.handleStreamStats)
	api.Get("/history", s.handleHistory)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/stats", websocket.New(s.handleStatsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start starts the hubs and the server. It blocks until Shutdown.
func (s *Server) Start() error {
	log.Info("web server listening", "port", s.port)

	go s.statsHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server failed", "error", err)
		}
	}()
}

// Write implements export.Sink by broadcasting the record to all stats
// websocket clients.
func (s *Server) Write(_ context.Context, stats export.Stats) error {
	return s.statsHub.BroadcastJSON(stats)
}

// SendCameraFrame pushes a JPEG frame to all camera websocket clients.
func (s *Server) SendCameraFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
