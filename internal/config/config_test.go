package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.Equal(t, "trafficLightsData", cfg.Store.Key)
	require.Equal(t, 30*time.Minute, cfg.Schedule.Window)
	require.Equal(t, 5*time.Second, cfg.Geocode.Timeout)
	require.Equal(t, 10*time.Second, cfg.Geocode.PositionTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crossing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  path: /var/lib/crossing.db
schedule:
  window: 10m
geocode:
  language: en
`), 0o600))

	t.Setenv("CROSSING_CONFIG_PATH", path)
	t.Setenv("CROSSING_SERVER_PORT", "9100")
	t.Setenv("CROSSING_SCHEDULE_TICK", "250ms")
	t.Setenv("CROSSING_AUTH_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "/var/lib/crossing.db", cfg.DB.Path)
	require.Equal(t, 10*time.Minute, cfg.Schedule.Window)
	require.Equal(t, 250*time.Millisecond, cfg.Schedule.Tick)
	require.Equal(t, "en", cfg.Geocode.Language)
	require.Equal(t, "secret", cfg.Auth.Token)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CROSSING_STORE_KEY=fromDotenv\n"), 0o600))
	t.Setenv("CROSSING_ENV_FILE", path)
	t.Cleanup(func() { os.Unsetenv("CROSSING_STORE_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "fromDotenv", cfg.Store.Key)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"CROSSING_SERVER_PORT": "http"}},
		{"port range", map[string]string{"CROSSING_SERVER_PORT": "70000"}},
		{"bad duration", map[string]string{"CROSSING_SCHEDULE_WINDOW": "half an hour"}},
		{"zero tick", map[string]string{"CROSSING_SCHEDULE_TICK": "0s"}},
		{"bad mode", map[string]string{"CROSSING_TRANSPORT_MODE": "carrier-pigeon"}},
		{"missing file", map[string]string{"CROSSING_CONFIG_PATH": "/nonexistent/crossing.yaml"}},
		{"missing env file", map[string]string{"CROSSING_ENV_FILE": "/nonexistent/.env"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
