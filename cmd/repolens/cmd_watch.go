package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repolens/internal/indexer"
	"repolens/internal/watcher"
)

var watchNoInitial bool

// watchCmd keeps the index fresh while files change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and re-index changed files",
	Long: `Runs an initial indexing pass, then watches the workspace for
file changes and re-indexes settled files. Press Ctrl-C to stop.

Use --no-initial to skip the initial pass and only watch.`,
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
		if !cfg.Indexer.EmbedSymbols {
			engine = nil
		}

		ix := indexer.New(ws, cfg.Indexer, st, engine)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if !watchNoInitial {
			fmt.Println("Running initial index pass...")
			report, err := ix.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Initial pass: %d indexed, %d unchanged, %d symbols\n",
				report.FilesIndexed, report.FilesUnchanged, report.Symbols)
		}

		debounce, err := cfg.WatcherDebounce()
		if err != nil {
			return err
		}

		w, err := watcher.New(ws, ix, indexer.NewIgnoreRules(cfg.Indexer.IgnoreDirs), debounce)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}

		fmt.Printf("Watching %s (debounce %v). Press Ctrl-C to stop.\n", ws, debounce)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nStopping watcher...")
		w.Stop()

		stats := w.GetStats()
		fmt.Printf("Watcher activity: %d re-indexed, %d removed, %d errors\n",
			stats.Reindexed, stats.Removed, stats.Errors)
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "Skip the initial index pass")
}
