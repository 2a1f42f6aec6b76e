package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, "llama3.1:8b", cfg.Model)
	assert.Equal(t, 300*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 12, cfg.HistoryLimit)
	assert.Equal(t, "local", cfg.LockDriver)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", " Redis ")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("HISTORY_LIMIT", "4")
	t.Setenv("LLM_TEMPERATURE", "0.3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 4, cfg.HistoryLimit)
	assert.InDelta(t, 0.3, cfg.Temperature, 1e-9)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_PORT=9100\nJWT_SECRET=from-file\n"), 0o600))
	t.Chdir(dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.AppPort)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.NotEmpty(t, cfg.ConfigFile)
}
