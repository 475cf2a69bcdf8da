// Package api serves the season engine over HTTP and WebSocket.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/season-engine/internal/api/websocket"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/goldenboot"
	"github.com/ramonehamilton/season-engine/internal/matchday"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/schedule"
	"github.com/ramonehamilton/season-engine/internal/standings"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/substitution"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int
	wsHub      *websocket.Hub
	services   *Services
	config     *Config
}

// Config holds configuration for the API server.
type Config struct {
	Port           int
	AllowedOrigins []string      // CORS and WebSocket origins
	RateLimit      float64       // write requests per second per client, 0 = unlimited
	RateBurst      int           // write burst per client
	RequestTimeout time.Duration // per-request deadline
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      20,
		RateBurst:      40,
		RequestTimeout: 30 * time.Second,
	}
}

// Services holds the engine components the handlers call.
type Services struct {
	Store      *storage.Service
	Engine     *substitution.Engine
	Projector  *stats.Projector
	Standings  *standings.Aggregator
	Ranker     *goldenboot.Ranker
	Finalizer  *matchday.Finalizer
	Scheduler  *schedule.Scheduler
	Dispatcher *events.EventDispatcher
	Metrics    *metrics.Collector
}

// NewServer creates a new API server. The WebSocket hub is registered on the
// services' dispatcher so every domain event reaches connected clients.
func NewServer(cfg *Config, services *Services) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router:   chi.NewRouter(),
		port:     cfg.Port,
		wsHub:    websocket.NewHub(cfg.AllowedOrigins...),
		services: services,
		config:   cfg,
	}
	if services.Dispatcher != nil {
		services.Dispatcher.Register(websocket.NewObserver(s.wsHub))
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	if s.config.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.config.RateLimit > 0 {
		s.router.Use(newWriteLimiter(s.config.RateLimit, s.config.RateBurst).middleware)
	}

	s.router.Use(jsonContentType)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the WebSocket hub and the HTTP listener in the background.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[API] Server starting on port %d", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[API] Server error: %v", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests, drains in-flight ones and closes WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}

	log.Println("[API] Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WebSocketHub returns the hub serving /ws.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
