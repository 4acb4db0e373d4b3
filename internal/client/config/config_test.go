package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080/api/v1", c.ServerBaseURL)
	assert.Equal(t, "127.0.0.1:50051", c.HealthEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://api:9090", "-g", "api:6000", "-d", "/tmp/x.db", "-i", "10", "-t", "5", "-l", "debug"},
			expected: &Config{
				ServerBaseURL:       "http://api:9090",
				HealthEndpointAddr:  "api:6000",
				DBPath:              "/tmp/x.db",
				OnlineCheckInterval: 10 * time.Second,
				RequestTimeout:      5 * time.Second,
				LogLevel:            "debug",
			},
		},
		{name: "incorrect check interval", args: []string{"-i", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestLoad_JSONThenFlags(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_base_url":       "http://json:8080/api/v1",
		"db_path":               "json.db",
		"online_check_interval": "7s",
		"request_timeout":       int64(2 * time.Second),
	})

	cfg, err := load([]string{"-config", path, "-d", "flag.db"})
	require.NoError(t, err)

	assert.Equal(t, "http://json:8080/api/v1", cfg.ServerBaseURL)
	assert.Equal(t, "flag.db", cfg.DBPath)
	assert.Equal(t, 7*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "127.0.0.1:50051", cfg.HealthEndpointAddr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
	_, err = load([]string{"-c", bad})
	require.Error(t, err)
}
