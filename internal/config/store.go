// Package config loads rpcprobe settings from defaults, a TOML file, a .env
// file and RPCPROBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Store reads settings from a TOML file.
type Store struct {
	path string
}

// NewStore creates a new settings store.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/rpcprobe/config.toml or the platform
// equivalent.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "rpcprobe", "config.toml")
}

// Load reads settings from the file. A missing file yields the defaults.
func (s *Store) Load() (Settings, error) {
	settings := DefaultSettings()
	if s.path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, err
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", s.path, err)
	}

	// Ensure defaults if not set
	if settings.Endpoint == "" {
		settings.Endpoint = DefaultEndpoint
	}
	if settings.IDMode == "" {
		settings.IDMode = IDModeFixed
	}
	return settings, nil
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from RPCPROBE_* variables found by lookup.
func ApplyEnv(s *Settings, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("RPCPROBE_ENDPOINT"); ok && v != "" {
		s.Endpoint = v
	}
	if v, ok := lookup("RPCPROBE_TIMEOUT"); ok && v != "" {
		s.Timeout = v
	}
	if v, ok := lookup("RPCPROBE_ID_MODE"); ok && v != "" {
		s.IDMode = strings.ToLower(v)
	}
	if v, ok := lookup("RPCPROBE_LOG_LEVEL"); ok && v != "" {
		s.LogLevel = v
	}
	if v, ok := lookup("RPCPROBE_LOG_FILE"); ok && v != "" {
		s.LogFile = v
	}
	if v, ok := lookup("RPCPROBE_METRICS_FILE"); ok && v != "" {
		s.MetricsFile = v
	}
	if v, ok := lookup("RPCPROBE_TOKEN"); ok && v != "" {
		s.Auth.Token = v
	}
	if v, ok := lookup("RPCPROBE_CLIENT_SECRET"); ok && v != "" {
		s.Auth.ClientSecret = v
	}
	if v, ok := lookup("RPCPROBE_COLOR"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RPCPROBE_COLOR: %w", err)
		}
		s.Color = b
	}
	return nil
}
