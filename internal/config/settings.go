package config

import (
	"fmt"
	"time"

	"github.com/rpcprobe/rpcprobe/internal/auth"
)

// DefaultEndpoint is where rpcprobe sends requests unless configured.
const DefaultEndpoint = "http://127.0.0.1:8080/"

// ID modes.
const (
	IDModeFixed    = "fixed"
	IDModeSequence = "sequence"
	IDModeUUID     = "uuid"
)

// Settings represents the rpcprobe configuration.
type Settings struct {
	Endpoint    string            `toml:"endpoint"`
	Timeout     string            `toml:"timeout"`
	IDMode      string            `toml:"id_mode"`
	LogLevel    string            `toml:"log_level"`
	LogFile     string            `toml:"log_file"`
	MetricsFile string            `toml:"metrics_file"`
	Color       bool              `toml:"color"`
	Strict      bool              `toml:"strict"`
	Headers     map[string]string `toml:"headers"`
	Auth        auth.Options      `toml:"auth"`
}

// DefaultSettings returns settings that reproduce the plain two-call run:
// local endpoint, no timeout, id 1 on every request.
func DefaultSettings() Settings {
	return Settings{
		Endpoint: DefaultEndpoint,
		IDMode:   IDModeFixed,
		LogLevel: "warn",
		Color:    true,
	}
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (s Settings) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" || s.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", s.Timeout)
	}
	return d, nil
}

// Validate checks field values.
func (s Settings) Validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if _, err := s.TimeoutDuration(); err != nil {
		return err
	}
	switch s.IDMode {
	case IDModeFixed, IDModeSequence, IDModeUUID:
	default:
		return fmt.Errorf("unknown id_mode %q (want fixed, sequence or uuid)", s.IDMode)
	}
	return nil
}
