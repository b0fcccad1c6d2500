package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) (configHome, stateHome string) {
	t.Helper()
	configHome = t.TempDir()
	stateHome = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_STATE_HOME", stateHome)
	return configHome, stateHome
}

func TestLoad_Defaults(t *testing.T) {
	_, stateHome := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "", cfg.Log.Format)
	assert.Equal(t, filepath.Join(stateHome, "rak", "rak.log"), cfg.Log.File)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(stateHome, "rak"), cfg.Storage.Dir)
	assert.Equal(t, "book-reader-storage", cfg.Storage.Key)
	assert.Equal(t, filepath.Join(stateHome, "rak", "books"), cfg.Library.Dir)
	assert.Equal(t, "https://translate.googleapis.com/translate_a/single", cfg.Translate.Endpoint)
	assert.Equal(t, "id", cfg.Translate.Target)
	assert.Equal(t, 15*time.Second, cfg.Translate.Timeout)
	assert.Equal(t, 1.0, cfg.Translate.Rate)
	assert.Empty(t, cfg.File)
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("RAK_STORAGE_BACKEND", "sqlite")
	t.Setenv("RAK_LOG_LEVEL", "debug")
	t.Setenv("RAK_TRANSLATE_TARGET", "en")
	t.Setenv("RAK_TRANSLATE_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "en", cfg.Translate.Target)
	assert.Equal(t, 3*time.Second, cfg.Translate.Timeout)
}

func TestLoad_DefaultFile(t *testing.T) {
	configHome, _ := isolate(t)
	dir := filepath.Join(configHome, "rak")
	require.NoError(t, os.MkdirAll(dir, 0755))
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
storage:
  backend: badger
  dir: /tmp/rak-test
translate:
  target: fr
  rate: 0.5
`), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, file, cfg.File)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/rak-test", cfg.Storage.Dir)
	assert.Equal(t, "fr", cfg.Translate.Target)
	assert.Equal(t, 0.5, cfg.Translate.Rate)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("storage:\n  backend: badger\n"), 0644))
	t.Setenv("RAK_STORAGE_BACKEND", "memory")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"backend", map[string]string{"RAK_STORAGE_BACKEND": "postgres"}},
		{"log level", map[string]string{"RAK_LOG_LEVEL": "loud"}},
		{"log format", map[string]string{"RAK_LOG_FORMAT": "xml"}},
		{"environment", map[string]string{"RAK_APP_ENVIRONMENT": "staging"}},
		{"endpoint", map[string]string{"RAK_TRANSLATE_ENDPOINT": "not a url"}},
		{"rate", map[string]string{"RAK_TRANSLATE_RATE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}
