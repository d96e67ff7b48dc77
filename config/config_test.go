package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MENUBOT_CONFIG", filepath.Join(t.TempDir(), "absent.json"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "hf", cfg.EmbeddingProvider)
	assert.Equal(t, "chroma_db", cfg.StorePath)
	assert.Equal(t, 7860, cfg.Port)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MENUBOT_CONFIG", filepath.Join(t.TempDir(), "absent.json"))
	t.Setenv("MENUBOT_PROVIDER", "anthropic")
	t.Setenv("MENUBOT_API_KEY", "secret")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menubot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"provider": "groq",
		"model": "llama-3.1-70b",
		"port": 8081
	}`), 0644))
	t.Setenv("MENUBOT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "llama-3.1-70b", cfg.Model)
	assert.Equal(t, 8081, cfg.Port)
	// Untouched fields keep their defaults.
	assert.Equal(t, "chroma_db", cfg.StorePath)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menubot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "groq"}`), 0644))
	t.Setenv("MENUBOT_CONFIG", path)
	t.Setenv("MENUBOT_PROVIDER", "openai")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
}

func TestEmbeddingKeyFallsBackToAPIKey(t *testing.T) {
	t.Setenv("MENUBOT_CONFIG", filepath.Join(t.TempDir(), "absent.json"))
	t.Setenv("MENUBOT_API_KEY", "shared-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "shared-key", cfg.EmbeddingAPIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MENUBOT_CONFIG", filepath.Join(dir, "absent.json"))

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Provider = "groq"

	path := filepath.Join(dir, "nested", "config.json")
	require.NoError(t, cfg.Save(path))

	t.Setenv("MENUBOT_CONFIG", path)
	reloaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "groq", reloaded.Provider)
}
