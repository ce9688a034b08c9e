// Package http provides the REST API for memoryd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/memoryd/internal/config"
	"github.com/fyrsmithlabs/memoryd/internal/registry"
)

// Server hosts the REST endpoints and the shared Echo instance that the
// JSON-RPC adapter mounts onto.
type Server struct {
	echo     *echo.Echo
	registry *registry.Registry
	logger   *zap.Logger
	config   *config.ServerConfig
}

// NewServer creates a new HTTP server with middleware and REST routes
// installed.
func NewServer(reg *registry.Registry, logger *zap.Logger, cfg *config.ServerConfig) (*Server, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &config.ServerConfig{
			Host: "0.0.0.0",
			Port: 9080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit)),
		))
	}
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:     e,
		registry: reg,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// Echo exposes the router so additional surfaces (JSON-RPC endpoint,
// Prometheus exposition) can be mounted before Start.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Liveness
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")

	// Project namespaces
	api.GET("/projects", s.handleProjectsList)
	api.POST("/projects", s.handleProjectCreate)

	// Per-project memories. The static /search route outranks /:id in
	// Echo's router, so "search" is not a reachable record id.
	memories := api.Group("/projects/:codename/memories")
	memories.POST("", s.handleMemoryCreate)
	memories.GET("", s.handleMemoryList)
	memories.GET("/search", s.handleMemorySearch)
	memories.GET("/:id", s.handleMemoryGet)
	memories.PUT("/:id", s.handleMemoryUpdate)
	memories.DELETE("/:id", s.handleMemoryDelete)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
