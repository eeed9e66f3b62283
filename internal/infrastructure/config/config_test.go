package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_DefaultsWithEmptyFile(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "bridge", cfg.Daemon.HostMode)
	assert.Equal(t, time.Second, cfg.Gathering.TickInterval)
	assert.Equal(t, 3, cfg.Gathering.RetryLimit)
	assert.Equal(t, 30*time.Second, cfg.Gathering.FinishTimeout)
	assert.Equal(t, 30*time.Second, cfg.Gathering.CommandOnly.Interval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileValues(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, `
daemon:
  host_mode: simulated
  address: localhost:6000
gathering:
  tick_interval: 500ms
  retry_limit: 5
  soft_no_delta_timeout: 15s
  hard_no_delta_timeout: 60s
  tiers:
    - min_level: 1
      max_tier: 1
    - min_level: 50
      max_tier: 4
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "simulated", cfg.Daemon.HostMode)
	assert.Equal(t, "localhost:6000", cfg.Daemon.Address)
	assert.Equal(t, 500*time.Millisecond, cfg.Gathering.TickInterval)
	assert.Equal(t, 5, cfg.Gathering.RetryLimit)
	require.Len(t, cfg.Gathering.Tiers, 2)
	assert.Equal(t, 4, cfg.Gathering.Tiers[1].MaxTier)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("GB_DAEMON_HOST_MODE", "simulated")
	t.Setenv("GB_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(writeConfig(t, "daemon:\n  host_mode: bridge\n"))
	require.NoError(t, err)

	assert.Equal(t, "simulated", cfg.Daemon.HostMode)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown host mode", "daemon:\n  host_mode: telepathy\n"},
		{"hard window shorter than soft", "gathering:\n  soft_no_delta_timeout: 60s\n  hard_no_delta_timeout: 30s\n"},
		{"descending tiers", "gathering:\n  tiers:\n    - min_level: 50\n      max_tier: 4\n    - min_level: 10\n      max_tier: 2\n"},
		{"unknown log level", "logging:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGatheringConfig_ToSettings(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	cfg.Gathering.Tiers = []config.TierConfig{{MinLevel: 1, MaxTier: 1}, {MinLevel: 30, MaxTier: 3}}

	settings := cfg.Gathering.ToSettings()

	assert.Equal(t, cfg.Gathering.TickInterval, settings.TickInterval)
	assert.Equal(t, cfg.Gathering.Escalation.MaxReenableFailures, settings.MaxReenableFailures)
	assert.Equal(t, cfg.Gathering.CommandOnly.MaxRefusals, settings.MaxCommandRefusals)
	assert.Equal(t, 1, settings.Tiers.MaxTier(10))
	assert.Equal(t, 3, settings.Tiers.MaxTier(45))
}

func TestUserConfigHandler_RoundTrip(t *testing.T) {
	handler := config.NewUserConfigHandlerAt(filepath.Join(t.TempDir(), "prefs", "preferences.json"))

	empty, err := handler.Load()
	require.NoError(t, err)
	assert.Empty(t, empty.DefaultMaterials)

	require.NoError(t, handler.SetDefaultMaterials("/tmp/materials.yaml"))
	require.NoError(t, handler.SetDefaultBuffer(2))

	loaded, err := handler.Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/materials.yaml", loaded.DefaultMaterials)
	require.NotNil(t, loaded.DefaultBuffer)
	assert.Equal(t, 2, *loaded.DefaultBuffer)

	require.NoError(t, handler.Clear())
	cleared, err := handler.Load()
	require.NoError(t, err)
	assert.Nil(t, cleared.DefaultBuffer)
}
