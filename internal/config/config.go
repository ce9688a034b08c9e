// Package config provides configuration loading for memoryd.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then environment variable overrides (SERVER_PORT -> server.port).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Config holds the complete memoryd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request rate (requests/second) enforced on
	// the HTTP surface. 0 disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is one of "chromem" (embedded, default), "qdrant" (remote),
	// or "memory" (non-persistent, tests and throwaway runs).
	Provider string `koanf:"provider"`

	// VectorSize is the embedding dimension. 0 derives it from the
	// configured embeddings model.
	VectorSize int `koanf:"vector_size"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// QdrantConfig configures the remote Qdrant store.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	APIKey Secret `koanf:"api_key"`
	UseTLS bool   `koanf:"use_tls"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (local ONNX, default) or "tei" (remote
	// OpenAI-compatible endpoint).
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   Secret `koanf:"api_key"`
	CacheDir string `koanf:"cache_dir"`
}

// LoggingConfig holds the logging knobs surfaced through configuration.
// The logging package derives its full config from these.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
}

// TelemetryConfig configures OpenTelemetry export. Disabled by default.
//
// Field names are flat (metrics_interval, not metrics.interval) because the
// environment overlay splits variables on the first underscore only:
// TELEMETRY_METRICS_INTERVAL -> telemetry.metrics_interval.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"` // grpc (default) or http/protobuf
	ServiceName     string   `koanf:"service_name"`
	ServiceVersion  string   `koanf:"service_version"`
	Insecure        bool     `koanf:"insecure"`
	SampleRate      float64  `koanf:"sample_rate"`
	MetricsEnabled  bool     `koanf:"metrics_enabled"`
	MetricsInterval Duration `koanf:"metrics_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate limit cannot be negative: %f", c.Server.RateLimit)
	}

	switch c.VectorStore.Provider {
	case "chromem", "qdrant", "memory":
	default:
		return fmt.Errorf("unsupported vectorstore provider: %q (supported: chromem, qdrant, memory)", c.VectorStore.Provider)
	}
	if c.VectorStore.VectorSize < 0 {
		return fmt.Errorf("vector size cannot be negative: %d", c.VectorStore.VectorSize)
	}
	if c.VectorStore.Provider == "qdrant" {
		if c.VectorStore.Qdrant.Host == "" {
			return errors.New("qdrant host is required for the qdrant provider")
		}
		if c.VectorStore.Qdrant.Port < 1 || c.VectorStore.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid qdrant port: %d", c.VectorStore.Qdrant.Port)
		}
	}

	switch c.Embeddings.Provider {
	case "fastembed", "tei":
	default:
		return fmt.Errorf("unsupported embeddings provider: %q (supported: fastembed, tei)", c.Embeddings.Provider)
	}
	if c.Embeddings.Provider == "tei" && c.Embeddings.BaseURL == "" {
		return errors.New("embeddings base_url is required for the tei provider")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	return c.Telemetry.validate()
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Endpoint == "" {
		return errors.New("telemetry endpoint is required when telemetry is enabled")
	}
	if t.ServiceName == "" {
		return errors.New("telemetry service_name is required when telemetry is enabled")
	}
	switch t.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("invalid telemetry protocol: %q (supported: grpc, http/protobuf)", t.Protocol)
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("telemetry sample_rate must be in [0,1], got %f", t.SampleRate)
	}
	// Plaintext export is confined to local collectors.
	if t.Insecure && !isLocalEndpoint(t.Endpoint) {
		return fmt.Errorf("insecure telemetry export requires a local endpoint, got %q", t.Endpoint)
	}
	return nil
}

// isLocalEndpoint reports whether an OTLP endpoint points at the local host.
func isLocalEndpoint(endpoint string) bool {
	host := endpoint
	if strings.Contains(endpoint, "://") {
		if u, err := url.Parse(endpoint); err == nil {
			host = u.Host
		}
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	switch host {
	case "localhost", "127.0.0.1", "::1", "[::1]":
		return true
	}
	return false
}
