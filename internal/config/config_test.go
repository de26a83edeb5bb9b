package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8, cfg.Indexer.Workers)
	assert.Equal(t, int64(2*1024*1024), cfg.Indexer.MaxFileSize)
	assert.Empty(t, cfg.Embedding.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Embedding.OllamaEndpoint)
	assert.Equal(t, filepath.Join(".repolens", "index.db"), cfg.Storage.DatabasePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Indexer.Workers)
	})

	t.Run("file settings override defaults", func(t *testing.T) {
		ws := t.TempDir()
		dir := filepath.Join(ws, ".repolens")
		require.NoError(t, os.MkdirAll(dir, 0755))
		yaml := `
indexer:
  workers: 2
  ignore_dirs: [generated]
embedding:
  provider: ollama
  ollama_model: nomic-embed-text
watcher:
  debounce: 250ms
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

		cfg, err := Load(ws)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Indexer.Workers)
		assert.Equal(t, []string{"generated"}, cfg.Indexer.IgnoreDirs)
		assert.Equal(t, "ollama", cfg.Embedding.Provider)
		assert.Equal(t, "nomic-embed-text", cfg.Embedding.OllamaModel)
		// Unset fields keep their defaults
		assert.Equal(t, int64(2*1024*1024), cfg.Indexer.MaxFileSize)

		d, err := cfg.WatcherDebounce()
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, d)
	})

	t.Run("invalid yaml errors", func(t *testing.T) {
		ws := t.TempDir()
		dir := filepath.Join(ws, ".repolens")
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("indexer: ["), 0644))

		_, err := Load(ws)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("provider and workers", func(t *testing.T) {
		t.Setenv("REPOLENS_EMBEDDING_PROVIDER", "ollama")
		t.Setenv("REPOLENS_WORKERS", "3")

		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "ollama", cfg.Embedding.Provider)
		assert.Equal(t, 3, cfg.Indexer.Workers)
	})

	t.Run("GEMINI_API_KEY fills an empty key only", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini-key", cfg.Embedding.GenAIAPIKey)

		t.Setenv("REPOLENS_GENAI_API_KEY", "explicit-key")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "explicit-key", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("debug flag flips logging", func(t *testing.T) {
		t.Setenv("REPOLENS_DEBUG", "1")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Indexer.Workers = 0 }},
		{"negative max file size", func(c *Config) { c.Indexer.MaxFileSize = -1 }},
		{"bad provider", func(c *Config) { c.Embedding.Provider = "magic" }},
		{"bad debounce", func(c *Config) { c.Watcher.Debounce = "soon" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ws := t.TempDir()

	cfg := DefaultConfig()
	cfg.Indexer.Workers = 4
	cfg.Embedding.Provider = "ollama"
	require.NoError(t, cfg.Save(ws))

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Indexer.Workers)
	assert.Equal(t, "ollama", loaded.Embedding.Provider)
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/ws", ".repolens", "index.db"), cfg.DatabasePath("/ws"))

	cfg.Storage.DatabasePath = "/abs/index.db"
	assert.Equal(t, "/abs/index.db", cfg.DatabasePath("/ws"))
}
