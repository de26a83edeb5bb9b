// Package config loads and validates repolens configuration.
// Configuration lives at .repolens/config.yaml inside the workspace;
// every field has a sensible default so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all repolens configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Indexing pipeline
	Indexer IndexerConfig `yaml:"indexer"`

	// Embedding engine
	Embedding EmbeddingConfig `yaml:"embedding"`

	// SQLite storage
	Storage StorageConfig `yaml:"storage"`

	// File watcher
	Watcher WatcherConfig `yaml:"watcher"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// IndexerConfig configures the indexing pipeline.
type IndexerConfig struct {
	// Workers bounds parse/hash concurrency.
	Workers int `yaml:"workers"`

	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// IgnoreDirs are directory names skipped during walks,
	// in addition to the built-in defaults.
	IgnoreDirs []string `yaml:"ignore_dirs"`

	// EmbedSymbols enables the embedding stage during indexing.
	EmbedSymbols bool `yaml:"embed_symbols"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	// Provider: "ollama", "genai", or "" (keyword search only)
	Provider string `yaml:"provider"`

	// Ollama
	OllamaEndpoint string `yaml:"ollama_endpoint"` // Default: "http://localhost:11434"
	OllamaModel    string `yaml:"ollama_model"`    // Default: "embeddinggemma"

	// GenAI
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"` // Default: "gemini-embedding-001"

	// TaskType for GenAI embeddings
	TaskType string `yaml:"task_type"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	// DatabasePath relative to the workspace (default: .repolens/index.db)
	DatabasePath string `yaml:"database_path"`
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Debounce is how long a path must be quiet before reindexing.
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "repolens",
		Version: "0.3.0",
		Indexer: IndexerConfig{
			Workers:     8,
			MaxFileSize: 2 * 1024 * 1024,
		},
		Embedding: EmbeddingConfig{
			Provider:       "",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "CODE_RETRIEVAL_QUERY",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(".repolens", "index.db"),
		},
		Watcher: WatcherConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads the config from workspace/.repolens/config.yaml, falling back to
// defaults for anything unset. A missing file returns defaults, not an error.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(workspace, ".repolens", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables override file settings.
// REPOLENS_* variables win over the config file so CI and one-off runs
// don't need to edit the workspace config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REPOLENS_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("REPOLENS_OLLAMA_ENDPOINT"); v != "" {
		c.Embedding.OllamaEndpoint = v
	}
	if v := os.Getenv("REPOLENS_GENAI_API_KEY"); v != "" {
		c.Embedding.GenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.Embedding.GenAIAPIKey == "" {
		c.Embedding.GenAIAPIKey = v
	}
	if v := os.Getenv("REPOLENS_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("REPOLENS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexer.Workers = n
		}
	}
	if v := os.Getenv("REPOLENS_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// Validate checks for invalid settings.
func (c *Config) Validate() error {
	if c.Indexer.Workers <= 0 {
		return fmt.Errorf("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	if c.Indexer.MaxFileSize <= 0 {
		return fmt.Errorf("indexer.max_file_size must be positive, got %d", c.Indexer.MaxFileSize)
	}
	switch c.Embedding.Provider {
	case "", "ollama", "genai":
	default:
		return fmt.Errorf("embedding.provider must be \"ollama\", \"genai\" or empty, got %q", c.Embedding.Provider)
	}
	if _, err := c.WatcherDebounce(); err != nil {
		return err
	}
	return nil
}

// WatcherDebounce parses the watcher debounce duration.
func (c *Config) WatcherDebounce() (time.Duration, error) {
	if c.Watcher.Debounce == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.Watcher.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watcher.debounce: %w", err)
	}
	return d, nil
}

// DatabasePath resolves the store path against the workspace.
func (c *Config) DatabasePath(workspace string) string {
	if filepath.IsAbs(c.Storage.DatabasePath) {
		return c.Storage.DatabasePath
	}
	return filepath.Join(workspace, c.Storage.DatabasePath)
}

// Save writes the config to workspace/.repolens/config.yaml.
func (c *Config) Save(workspace string) error {
	dir := filepath.Join(workspace, ".repolens")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}
