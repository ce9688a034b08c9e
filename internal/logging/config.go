package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      zapcore.Level
	Format     string // json or console
	Output     OutputConfig
	Caller     CallerConfig
	Stacktrace StacktraceConfig
	Fields     map[string]string
}

// OutputConfig controls where logs are written.
//
// Stderr replaces Stdout in stdio transport mode, where stdout carries the
// MCP protocol stream and must stay clean.
type OutputConfig struct {
	Stdout bool
	Stderr bool
	OTEL   bool
}

// CallerConfig controls caller information in logs.
type CallerConfig struct {
	Enabled bool
	Skip    int
}

// StacktraceConfig controls stacktrace inclusion.
type StacktraceConfig struct {
	Level zapcore.Level
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{
			Stdout: true,
			OTEL:   false,
		},
		Caller: CallerConfig{
			Enabled: true,
			Skip:    1,
		},
		Stacktrace: StacktraceConfig{
			Level: zapcore.ErrorLevel,
		},
		Fields: map[string]string{
			"service": "memoryd",
		},
	}
}

// FromSettings builds a Config from the level/format strings carried in the
// application configuration, on top of the defaults.
func FromSettings(level, format string) (*Config, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := NewDefaultConfig()
	cfg.Level = parsed
	cfg.Format = format
	return cfg, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if !c.Output.Stdout && !c.Output.Stderr && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (stdout, stderr, or otel)")
	}
	if c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip cannot be negative")
	}
	return nil
}
