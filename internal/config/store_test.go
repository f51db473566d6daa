package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpcprobe/rpcprobe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadNonExistent(t *testing.T) {
	store := config.NewStore(filepath.Join(t.TempDir(), "missing.toml"))
	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), settings)
	assert.Equal(t, "http://127.0.0.1:8080/", settings.Endpoint)

	d, err := settings.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestStore_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
endpoint = "http://10.0.0.5:9000/rpc"
timeout = "15s"
id_mode = "sequence"
color = false

[headers]
X-Client-Tag = "yes"

[auth]
token_url = "https://auth.example.com/token"
client_id = "rpcprobe"
scopes = ["rpc.read"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	settings, err := config.NewStore(path).Load()
	require.NoError(t, err)
	require.NoError(t, settings.Validate())

	assert.Equal(t, "http://10.0.0.5:9000/rpc", settings.Endpoint)
	assert.Equal(t, config.IDModeSequence, settings.IDMode)
	assert.False(t, settings.Color)
	assert.Equal(t, "yes", settings.Headers["X-Client-Tag"])
	assert.Equal(t, "rpcprobe", settings.Auth.ClientID)
	assert.Equal(t, []string{"rpc.read"}, settings.Auth.Scopes)

	d, err := settings.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)
}

func TestStore_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint = "), 0644))

	_, err := config.NewStore(path).Load()
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RPCPROBE_ENDPOINT": "http://example.com/",
		"RPCPROBE_TIMEOUT":  "2s",
		"RPCPROBE_ID_MODE":  "UUID",
		"RPCPROBE_TOKEN":    "abc",
		"RPCPROBE_COLOR":    "false",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	settings := config.DefaultSettings()
	require.NoError(t, config.ApplyEnv(&settings, lookup))
	assert.Equal(t, "http://example.com/", settings.Endpoint)
	assert.Equal(t, "2s", settings.Timeout)
	assert.Equal(t, config.IDModeUUID, settings.IDMode)
	assert.Equal(t, "abc", settings.Auth.Token)
	assert.False(t, settings.Color)

	env["RPCPROBE_COLOR"] = "maybe"
	assert.Error(t, config.ApplyEnv(&settings, lookup))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	t.Setenv("RPCPROBE_TEST_DOTENV_KEEP", "original")
	require.NoError(t, os.WriteFile(path, []byte("RPCPROBE_TEST_DOTENV=loaded\nRPCPROBE_TEST_DOTENV_KEEP=overridden\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RPCPROBE_TEST_DOTENV") })

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("RPCPROBE_TEST_DOTENV"))
	assert.Equal(t, "original", os.Getenv("RPCPROBE_TEST_DOTENV_KEEP"))

	assert.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Settings)
		wantErr bool
	}{
		{"defaults", func(*config.Settings) {}, false},
		{"empty endpoint", func(s *config.Settings) { s.Endpoint = "" }, true},
		{"bad timeout", func(s *config.Settings) { s.Timeout = "soon" }, true},
		{"negative timeout", func(s *config.Settings) { s.Timeout = "-1s" }, true},
		{"bad id mode", func(s *config.Settings) { s.IDMode = "random" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
