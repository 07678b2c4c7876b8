package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/factory"
)

func TestDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, factory.StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 5*time.Second, cfg.ScoreboardInterval)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, slog.LevelInfo, cfg.Level)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_TYPE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCOREBOARD_INTERVAL", "250ms")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, factory.StorageTypeRedis, cfg.StorageType)
	assert.Equal(t, 250*time.Millisecond, cfg.ScoreboardInterval)
	assert.Equal(t, slog.LevelDebug, cfg.Level)

	fc := cfg.Factory(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://localhost:6379/0", fc.RedisConfig.URL)
	assert.Equal(t, 250*time.Millisecond, fc.ScoreboardInterval)
}

func TestEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE_TYPE=sqlite\nDATABASE_URL=/tmp/quiz.db\n"), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, factory.StorageTypeSQLite, cfg.StorageType)
	assert.Equal(t, "/tmp/quiz.db", cfg.DatabaseURL)
	assert.Nil(t, cfg.Factory(nil).RedisConfig)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"redis without url", map[string]string{"STORAGE_TYPE": "redis"}},
		{"postgres without url", map[string]string{"STORAGE_TYPE": "postgres"}},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "etcd"}},
		{"bad port", map[string]string{"HTTP_PORT": "70000"}},
		{"bad level", map[string]string{"LOG_LEVEL": "chatty"}},
		{"zero interval", map[string]string{"SCOREBOARD_INTERVAL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
