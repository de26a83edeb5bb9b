package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"repolens/internal/indexer"
)

var indexEmbed bool

// indexCmd runs a full indexing pass over the workspace.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the workspace",
	Long: `Walks the workspace, parses supported source files and stores
symbols in the index database. Unchanged files are skipped, so repeat
runs are cheap.

With --embed (or embed_symbols: true in the config), symbol snippets
are also embedded for semantic search.`,
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

		var engine = buildEngine(cfg)
		if !indexEmbed && !cfg.Indexer.EmbedSymbols {
			engine = nil
		}

		ix := indexer.New(ws, cfg.Indexer, st, engine)
		report, err := ix.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %s in %v\n", report.Root, report.Duration.Round(time.Millisecond))
		fmt.Printf("  Files seen:      %d\n", report.FilesSeen)
		fmt.Printf("  Files indexed:   %d\n", report.FilesIndexed)
		fmt.Printf("  Files unchanged: %d\n", report.FilesUnchanged)
		fmt.Printf("  Files skipped:   %d\n", report.FilesSkipped)
		fmt.Printf("  Symbols:         %d\n", report.Symbols)
		if report.ParseErrors > 0 {
			fmt.Printf("  Parse errors:    %d (see .repolens/logs)\n", report.ParseErrors)
		}

		if len(report.Languages) > 0 {
			langs := make([]string, 0, len(report.Languages))
			for lang := range report.Languages {
				langs = append(langs, lang)
			}
			sort.Strings(langs)
			fmt.Println("  By language:")
			for _, lang := range langs {
				fmt.Printf("    %-12s %d\n", lang, report.Languages[lang])
			}
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexEmbed, "embed", false, "Embed symbol snippets during indexing")
}
