package mcp

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/registry"
)

// Server identity reported by the initialize handshake.
const (
	serverName    = "mcp-memory"
	serverVersion = "0.1.0"

	// defaultProtocolVersion is advertised when the client does not
	// request a specific version. The handshake echoes whatever the
	// client sends otherwise.
	defaultProtocolVersion = "2025-11-25"
)

// Server implements the MCP protocol over HTTP with the Echo router.
//
// Each project codename gets its own logical endpoint. The registry
// resolves codenames to memory services lazily, so the first request
// for a codename creates its collection.
type Server struct {
	echo     *echo.Echo
	registry *registry.Registry
	logger   *zap.Logger
}

// NewServer creates an MCP server bound to an Echo router.
func NewServer(e *echo.Echo, reg *registry.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		echo:     e,
		registry: reg,
		logger:   logger,
	}
}

// RegisterRoutes registers the JSON-RPC endpoint.
//
// Registered endpoints:
//   - POST /mcp/:codename
func (s *Server) RegisterRoutes() {
	s.echo.POST("/mcp/:codename", s.handleRPC)
}
