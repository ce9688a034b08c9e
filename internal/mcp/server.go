// Package mcp serves the memory tools over the MCP stdio transport.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// for clients that spawn servers as subprocesses; networked clients use the
// JSON-RPC endpoint in pkg/mcp instead. A stdio session has no URL path to
// scope by, so every tool takes an optional codename argument.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/registry"
)

// Server exposes the memory tools to MCP clients over stdio.
type Server struct {
	mcp      *mcp.Server
	registry *registry.Registry
	metrics  *Metrics
	logger   *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "mcp-memory")
	Name string

	// Version is the server version (default: "0.1.0")
	Version string

	// Logger for structured logging
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "mcp-memory",
		Version: "0.1.0",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates a new MCP server backed by the project registry.
func NewServer(cfg *Config, reg *registry.Registry) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		registry: reg,
		metrics:  NewMetrics(cfg.Logger),
		logger:   cfg.Logger,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
