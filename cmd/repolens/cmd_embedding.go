package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"repolens/internal/embedding"
)

// embeddingCmd groups embedding engine operations.
var embeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Embedding engine operations (set, check, reembed)",
}

var embeddingSetCmd = &cobra.Command{
	Use:   "set <ollama|genai> [api-key]",
	Short: "Set the embedding provider (and optional API key)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ws, err := loadConfig()
		if err != nil {
			return err
		}

		provider := args[0]
		switch provider {
		case "ollama":
			cfg.Embedding.Provider = "ollama"
			if cfg.Embedding.OllamaEndpoint == "" {
				cfg.Embedding.OllamaEndpoint = "http://localhost:11434"
			}
			if cfg.Embedding.OllamaModel == "" {
				cfg.Embedding.OllamaModel = "embeddinggemma"
			}
		case "genai":
			cfg.Embedding.Provider = "genai"
			if len(args) >= 2 {
				cfg.Embedding.GenAIAPIKey = args[1]
			}
			if cfg.Embedding.GenAIModel == "" {
				cfg.Embedding.GenAIModel = "gemini-embedding-001"
			}
			if cfg.Embedding.TaskType == "" {
				cfg.Embedding.TaskType = "CODE_RETRIEVAL_QUERY"
			}
		case "none":
			cfg.Embedding.Provider = ""
		default:
			return fmt.Errorf("unsupported provider %q (use ollama, genai or none)", provider)
		}

		if err := cfg.Save(ws); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("✓ Embedding provider set to %s\n", provider)
		return nil
	},
}

var embeddingCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured embedding backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Embedding.Provider == "" {
			fmt.Println("No embedding provider configured (keyword search only)")
			return nil
		}

		engine := buildEngine(cfg)
		if engine == nil {
			return fmt.Errorf("failed to create engine for provider %q", cfg.Embedding.Provider)
		}

		if hc, ok := engine.(embedding.HealthChecker); ok {
			if err := hc.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("%s health check failed: %w", engine.Name(), err)
			}
		} else {
			// No health endpoint, embed a probe text instead
			if _, err := engine.Embed(cmd.Context(), "repolens health probe"); err != nil {
				return fmt.Errorf("%s probe embed failed: %w", engine.Name(), err)
			}
		}

		fmt.Printf("✓ %s is reachable (%d dimensions)\n", engine.Name(), engine.Dimensions())
		return nil
	},
}

var embeddingReembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Embed stored snippets that have no vector yet",
	Long: `Backfills embeddings for snippets indexed while no provider was
configured. Run this after switching on an embedding provider to make
the existing index searchable semantically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ws, err := loadConfig()
		if err != nil {
			return err
		}

		engine := buildEngine(cfg)
		if engine == nil {
			return fmt.Errorf("no embedding provider configured (run `repolens embedding set` first)")
		}

		st, err := openStore(cfg, ws)
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Printf("Backfilling embeddings via %s...\n", engine.Name())
		n, err := st.ReembedMissing(context.Background(), engine)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Embedded %d snippets\n", n)
		return nil
	},
}

func init() {
	embeddingCmd.AddCommand(embeddingSetCmd)
	embeddingCmd.AddCommand(embeddingCheckCmd)
	embeddingCmd.AddCommand(embeddingReembedCmd)
}
