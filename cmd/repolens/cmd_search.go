package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"repolens/internal/search"
)

var (
	searchLimit  int
	searchHybrid bool
	searchJSON   bool
)

// searchCmd queries the index.
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index",
	Long: `Searches indexed symbols. With an embedding provider configured
this is semantic search over embedded snippets; without one it falls
back to keyword matching on symbol names and signatures.

Examples:
  repolens search "parse rust source"
  repolens search FileCache --limit 5
  repolens search "debounce events" --hybrid --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		cfg, ws, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := openStore(cfg, ws)
		if err != nil {
			return err
		}
		defer st.Close()

		searcher := search.New(st, buildEngine(cfg))

		var results []search.Result
		if searchHybrid {
			results, err = searcher.Hybrid(cmd.Context(), query, searchLimit)
		} else {
			results, err = searcher.Search(cmd.Context(), query, searchLimit)
		}
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		if len(results) == 0 {
			fmt.Println("No results. Have you run `repolens index`?")
			return nil
		}

		for i, r := range results {
			if r.Source == "semantic" {
				fmt.Printf("%2d. [%.3f] %s\n", i+1, r.Similarity, r.Ref)
			} else {
				fmt.Printf("%2d. [kw]    %s\n", i+1, r.Ref)
			}
			if r.File != "" {
				fmt.Printf("     %s:%d (%s)\n", r.File, r.Line, r.Kind)
			}
			if r.Snippet != "" {
				fmt.Printf("     %s\n", r.Snippet)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchHybrid, "hybrid", false, "Merge semantic and keyword results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output results as JSON")
}
