package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupHome redirects the home directory so config paths resolve inside the
// test sandbox, and returns the config directory.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "memoryd")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	return configDir
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	setupHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, "~/.config/memoryd/vectorstore", cfg.VectorStore.Chromem.Path)
	assert.Equal(t, "fastembed", cfg.Embeddings.Provider)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Embeddings.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
}

func TestLoadFromFile(t *testing.T) {
	configDir := setupHome(t)
	path := writeConfigFile(t, configDir, `
server:
  port: 7070
  shutdown_timeout: 3s
vectorstore:
  provider: memory
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "memory", cfg.VectorStore.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	configDir := setupHome(t)
	path := writeConfigFile(t, configDir, "server:\n  port: 7070\n")

	t.Setenv("SERVER_PORT", "7071")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7071, cfg.Server.Port)
}

func TestLoadEnvCompoundField(t *testing.T) {
	setupHome(t)
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "42s")
	t.Setenv("VECTORSTORE_PROVIDER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "memory", cfg.VectorStore.Provider)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	configDir := setupHome(t)

	cfg, err := Load(filepath.Join(configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9080, cfg.Server.Port)
}

func TestLoadRejectsPathOutsideAllowedDirs(t *testing.T) {
	setupHome(t)
	outside := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("server:\n  port: 7070\n"), 0600))

	_, err := Load(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be in")
}

func TestLoadRejectsWorldReadableFile(t *testing.T) {
	configDir := setupHome(t)
	path := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	configDir := setupHome(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: 99999\n"},
		{"bad provider", "vectorstore:\n  provider: dynamo\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"negative duration", "server:\n  shutdown_timeout: -5s\n"},
		{"bad telemetry protocol", "telemetry:\n  enabled: true\n  protocol: carrier-pigeon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, configDir, tt.yaml)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestTelemetryValidateMissingEndpoint(t *testing.T) {
	cfg := TelemetryConfig{Enabled: true, Protocol: "grpc", ServiceName: "memoryd", SampleRate: 1.0}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}

func TestTelemetryInsecureRemoteRejected(t *testing.T) {
	cfg := TelemetryConfig{
		Enabled:     true,
		Endpoint:    "collector.example.com:4317",
		Protocol:    "grpc",
		ServiceName: "memoryd",
		Insecure:    true,
		SampleRate:  1.0,
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local endpoint")

	cfg.Endpoint = "localhost:4317"
	assert.NoError(t, cfg.validate())
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureConfigDir())

	info, err := os.Stat(filepath.Join(home, ".config", "memoryd"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}
