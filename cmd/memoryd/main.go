// Memoryd is a memory daemon for coding agents with HTTP and stdio transports.
//
// This binary starts the memoryd HTTP server with full service initialization,
// including the vector store, embeddings, and the REST and MCP endpoints. The
// stdio subcommand serves the same memory tools over the MCP stdio transport
// for clients that spawn servers as subprocesses.
//
// Configuration is loaded from ~/.config/memoryd/config.yaml and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	memoryd
//
//	# Configure via environment
//	SERVER_PORT=9080 VECTORSTORE_PROVIDER=qdrant memoryd
//
//	# Serve MCP over stdio
//	memoryd stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/config"
	"github.com/fyrsmithlabs/memoryd/internal/embeddings"
	memoryhttp "github.com/fyrsmithlabs/memoryd/internal/http"
	"github.com/fyrsmithlabs/memoryd/internal/logging"
	mcpstdio "github.com/fyrsmithlabs/memoryd/internal/mcp"
	"github.com/fyrsmithlabs/memoryd/internal/registry"
	"github.com/fyrsmithlabs/memoryd/internal/telemetry"
	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
	"github.com/fyrsmithlabs/memoryd/pkg/mcp"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.config/memoryd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	if command == "version" {
		printVersion()
		return
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	var err error
	switch command {
	case "serve":
		err = run(ctx, *configPath)
	case "stdio":
		err = runStdio(ctx, *configPath)
	case "init":
		err = runInit(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fmt.Fprintf(os.Stderr, "\nUsage:\n")
		fmt.Fprintf(os.Stderr, "  memoryd [serve]    Start the memory daemon\n")
		fmt.Fprintf(os.Stderr, "  memoryd stdio      Serve MCP over stdio\n")
		fmt.Fprintf(os.Stderr, "  memoryd init       Install the ONNX runtime for local embeddings\n")
		fmt.Fprintf(os.Stderr, "  memoryd version    Show version information\n")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("memoryd: %v", err)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("memoryd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the memoryd server and blocks until the context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes telemetry and the logger
//  3. Prepares the embedding provider (downloading the ONNX runtime if needed)
//  4. Creates the vector store and project registry
//  5. Wires the REST API and MCP JSON-RPC onto one Echo router
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logger, err := newLogger(cfg, tel, false)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()
	zlog := logger.Underlying()

	logger.Info(ctx, "starting memoryd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("embeddings", cfg.Embeddings.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	if cfg.Embeddings.Provider == "fastembed" {
		if _, err := ensureONNXRuntime(ctx); err != nil {
			return fmt.Errorf("preparing ONNX runtime: %w", err)
		}
	}

	deps, err := initDependencies(cfg, zlog, true)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.Int("vector_size", cfg.VectorStore.VectorSize))

	srv, err := memoryhttp.NewServer(deps.registry, zlog, &cfg.Server)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	// MCP JSON-RPC shares the router with the REST API.
	mcp.NewServer(srv.Echo(), deps.registry, zlog).RegisterRoutes()

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("mcp_prefix", "/mcp"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info(ctx, "shutdown complete")
	return nil
}

// runStdio serves the memory tools over the MCP stdio transport.
//
// Stdout carries the protocol stream, so all logging moves to stderr and the
// ONNX runtime is never downloaded here; run 'memoryd init' first when using
// local embeddings.
func runStdio(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logger, err := newLogger(cfg, tel, true)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zlog := logger.Underlying()

	if cfg.Embeddings.Provider == "fastembed" {
		if _, err := requireONNXRuntime(ctx); err != nil {
			return fmt.Errorf("preparing ONNX runtime: %w", err)
		}
	}

	deps, err := initDependencies(cfg, zlog, false)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	mcpCfg := mcpstdio.DefaultConfig()
	mcpCfg.Logger = zlog

	srv, err := mcpstdio.NewServer(mcpCfg, deps.registry)
	if err != nil {
		return fmt.Errorf("creating stdio server: %w", err)
	}

	logger.Info(ctx, "stdio transport ready",
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("embeddings", cfg.Embeddings.Provider))

	return srv.Run(ctx)
}

// runInit prepares the local environment: the config directory and the ONNX
// runtime needed by the fastembed provider.
func runInit(ctx context.Context) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	fmt.Println("Config directory ready at ~/.config/memoryd")

	path, err := ensureONNXRuntime(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("ONNX runtime ready at %s\n", path)
	return nil
}

// newLogger builds the process logger. In stdio mode all output moves to
// stderr because stdout carries the MCP protocol stream.
func newLogger(cfg *config.Config, tel *telemetry.Telemetry, stdioMode bool) (*logging.Logger, error) {
	logCfg, err := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if stdioMode {
		logCfg.Output.Stdout = false
		logCfg.Output.Stderr = true
	}
	lp := tel.LoggerProvider()
	logCfg.Output.OTEL = lp != nil
	return logging.NewLogger(logCfg, lp)
}

// dependencies holds the storage and embedding stack shared by the serve and
// stdio modes.
type dependencies struct {
	provider embeddings.Provider
	store    vectorstore.Store
	registry *registry.Registry
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.provider != nil {
		_ = d.provider.Close()
	}
}

// initDependencies creates the embedding provider, vector store, and project
// registry. A zero configured vector size is derived from the embedding
// model.
func initDependencies(cfg *config.Config, logger *zap.Logger, showProgress bool) (*dependencies, error) {
	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider:     cfg.Embeddings.Provider,
		Model:        cfg.Embeddings.Model,
		BaseURL:      cfg.Embeddings.BaseURL,
		APIKey:       cfg.Embeddings.APIKey.Value(),
		CacheDir:     cfg.Embeddings.CacheDir,
		ShowProgress: showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	if cfg.VectorStore.VectorSize == 0 {
		cfg.VectorStore.VectorSize = provider.Dimension()
	}

	store, err := vectorstore.NewStore(cfg.VectorStore, provider, logger)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	reg, err := registry.New(store, logger)
	if err != nil {
		_ = store.Close()
		_ = provider.Close()
		return nil, fmt.Errorf("creating project registry: %w", err)
	}

	return &dependencies{
		provider: provider,
		store:    store,
		registry: reg,
	}, nil
}
