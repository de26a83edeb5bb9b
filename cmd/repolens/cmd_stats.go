package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// statsCmd prints index statistics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ws, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := openStore(cfg, ws)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Index: %s\n", st.Path())
		fmt.Printf("  Files:           %d\n", stats.Files)
		fmt.Printf("  Symbols:         %d\n", stats.Symbols)
		fmt.Printf("  Vectors:         %d\n", stats.Vectors)
		fmt.Printf("  With embeddings: %d\n", stats.WithEmbeddings)

		if len(stats.FilesByLanguage) > 0 {
			fmt.Println("  Files by language:")
			printCounts(stats.FilesByLanguage)
		}
		if len(stats.SymbolsByKind) > 0 {
			fmt.Println("  Symbols by kind:")
			printCounts(stats.SymbolsByKind)
		}

		if cfg.Embedding.Provider != "" {
			fmt.Printf("  Embedding provider: %s\n", cfg.Embedding.Provider)
		} else {
			fmt.Println("  Embedding provider: none (keyword search only)")
		}
		return nil
	},
}

func printCounts(counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("    %-12s %d\n", k, counts[k])
	}
}
