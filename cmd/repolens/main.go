package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"repolens/internal/config"
	"repolens/internal/embedding"
	"repolens/internal/logging"
	"repolens/internal/store"
)

var (
	// Global flags
	verbose   bool
	workspace string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "repolens - polyglot repository indexer with semantic search",
	Long: `repolens builds a symbol-level index of a repository.

It parses source files across languages (Go, Rust, Python, TypeScript,
Markdown), stores symbols and their annotations in SQLite, and can
embed symbol snippets for semantic search via Ollama or Google GenAI.

Typical flow:
  repolens init       # write default config into .repolens/
  repolens index      # build or refresh the index
  repolens search     # query it
  repolens watch      # keep it fresh while you edit`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(resolveWorkspace()); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// initCmd writes a default config into the workspace.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize repolens in the current workspace",
	Long: `Creates the .repolens/ directory with a default config.yaml.

Edit the file afterwards to pick an embedding provider, tune worker
counts, or add ignore directories. All settings have working defaults
so indexing works immediately after init.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := resolveWorkspace()
		cfgPath := filepath.Join(ws, ".repolens", "config.yaml")
		if _, err := os.Stat(cfgPath); err == nil {
			fmt.Printf("Already initialized (%s exists)\n", cfgPath)
			return nil
		}

		cfg := config.DefaultConfig()
		if err := cfg.Save(ws); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("✓ Initialized repolens in %s\n", ws)
		fmt.Println("  Edit .repolens/config.yaml to configure embeddings, then run: repolens index")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the repolens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("repolens", config.DefaultConfig().Version)
	},
}

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// loadConfig loads the workspace config with env overrides applied.
func loadConfig() (*config.Config, string, error) {
	ws := resolveWorkspace()
	cfg, err := config.Load(ws)
	if err != nil {
		return nil, "", err
	}
	return cfg, ws, nil
}

// openStore opens the workspace index database.
func openStore(cfg *config.Config, ws string) (*store.Store, error) {
	return store.Open(cfg.DatabasePath(ws))
}

// buildEngine creates the configured embedding engine, or nil when no
// provider is set (keyword-only mode).
func buildEngine(cfg *config.Config) embedding.Engine {
	if cfg.Embedding.Provider == "" {
		return nil
	}
	engine, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		TaskType:       cfg.Embedding.TaskType,
	})
	if err != nil {
		logger.Warn("embedding engine unavailable, continuing without embeddings", zap.Error(err))
		return nil
	}
	return engine
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current directory)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(embeddingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
