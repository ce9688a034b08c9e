package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration with text (un)marshalling so YAML files and
// environment variables can carry values like "30s" or "5m".
// Negative durations are rejected.
type Duration time.Duration

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", parsed)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Secret holds a sensitive string. Its value is redacted from String,
// GoString, and text marshalling so it cannot leak through logs or config
// dumps; read the real value with Value.
type Secret string

const redactedPlaceholder = "[REDACTED]"

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redactedPlaceholder
}

// GoString implements fmt.GoStringer so %#v stays redacted too.
func (s Secret) GoString() string {
	return "config.Secret(" + s.String() + ")"
}

// Value returns the underlying secret value.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether the secret carries a value.
func (s Secret) IsSet() bool {
	return s != ""
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

// MarshalText implements encoding.TextMarshaler. The value is redacted.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
