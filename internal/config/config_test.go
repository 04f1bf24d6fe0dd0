package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray .env file
// is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, time.Second, cfg.Timer.TickInterval)
	require.Equal(t, time.Minute, cfg.Timer.SaveInterval)
	require.Equal(t, 10*time.Second, cfg.Idle.MouseThreshold)

	hours, err := cfg.Calendar.Hours()
	require.NoError(t, err)
	require.Equal(t, 8*time.Hour, hours.Open)
	require.Equal(t, 18*time.Hour+30*time.Minute, hours.Close)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "worktime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
transport:
  mode: http
calendar:
  open: "07:30"
  break_start: "12:00"
  break_end: "13:00"
  close: "17:00"
timer:
  save_interval: 30s
idle:
  keyboard_threshold: 1m
`), 0o644))

	t.Setenv("WORKTIME_CONFIG_PATH", path)
	t.Setenv("WORKTIME_SERVER_PORT", "9191")
	t.Setenv("WORKTIME_USER_ID", "alice")
	t.Setenv("WORKTIME_AUTH_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "alice", cfg.User.DefaultID)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 30*time.Second, cfg.Timer.SaveInterval)
	require.Equal(t, time.Minute, cfg.Idle.KeyboardThreshold)
	require.Equal(t, 10*time.Second, cfg.Idle.MouseThreshold)

	hours, err := cfg.Calendar.Hours()
	require.NoError(t, err)
	require.Equal(t, 7*time.Hour+30*time.Minute, hours.Open)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WORKTIME_DB_PATH=data/dotenv.db\n"), 0o644))
	// godotenv never overrides variables that are already set.
	t.Setenv("WORKTIME_DB_PATH", "")
	require.NoError(t, os.Unsetenv("WORKTIME_DB_PATH"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "data/dotenv.db", cfg.DB.Path)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port":      {"WORKTIME_SERVER_PORT", "eighty"},
		"transport": {"WORKTIME_TRANSPORT", "grpc"},
		"auth":      {"WORKTIME_AUTH_ENABLED", "maybe"},
		"interval":  {"WORKTIME_TICK_INTERVAL", "often"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(env[0], env[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestCalendarHours_Invalid(t *testing.T) {
	cfg := Default()
	cfg.Calendar.Close = "11:00"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Calendar.Open = "8am"
	_, err := cfg.Calendar.Hours()
	require.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WORKTIME_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}
