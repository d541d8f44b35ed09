package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBackendURL, EnvTimeout, EnvOutput, EnvLogLevel, EnvSessionDir, EnvConfigDir} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, DefaultTimeout, cfg.Backend.Timeout)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, filepath.Join(dir, "session"), cfg.SessionDir)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `backend:
  url: https://agent.example.com/
  timeout: 10m
output: json
logLevel: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://agent.example.com", cfg.Backend.URL, "trailing slash is trimmed")
	assert.Equal(t, 10*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultGitHubCallbackPort, cfg.Backend.GitHubCallbackPort)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend:\n  url: https://file.example.com\n"), 0644))

	t.Setenv(EnvBackendURL, "http://env.example.com:9000")
	t.Setenv(EnvTimeout, "30s")
	t.Setenv(EnvSessionDir, "/tmp/custom-session")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example.com:9000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "/tmp/custom-session", cfg.SessionDir)
}

func TestLoadConfig_Malformed(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: [unclosed"), 0644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidTimeoutEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTimeout, "soon")

	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, EnvTimeout)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg := GetDefaultConfig()
	cfg.Backend.URL = "https://saved.example.com"
	cfg.Output = "yaml"
	require.NoError(t, SaveConfig(dir, cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com", loaded.Backend.URL)
	assert.Equal(t, "yaml", loaded.Output)
	assert.Equal(t, cfg.Backend.Timeout, loaded.Backend.Timeout)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv(EnvBackendURL, "")
	require.NoError(t, os.Unsetenv(EnvBackendURL))

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvBackendURL+"=https://dotenv.example.com\n"), 0600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "https://dotenv.example.com", os.Getenv(EnvBackendURL))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
