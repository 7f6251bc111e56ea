package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "leave.db", cfg.DBPath)
	assert.Empty(t, cfg.JWTSecret)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.True(t, cfg.SeedCatalog)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LEAVE_SERVER_PORT", "9090")
	t.Setenv("LEAVE_DB_PATH", "/tmp/leave-test.db")
	t.Setenv("LEAVE_JWT_SECRET", "hunter2")
	t.Setenv("LEAVE_SCHEDULER_INTERVAL", "30m")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "/tmp/leave-test.db", cfg.DBPath)
	assert.Equal(t, "hunter2", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.SchedulerInterval)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_port: 3000\nscheduler_enabled: false\nallowed_origins:\n  - https://leave.example.com\n",
	), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.ServerPort)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, []string{"https://leave.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "leave.db", cfg.DBPath, "unset keys keep their defaults")
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
