package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"repolens/internal/store"
)

var symbolsKind string

// symbolsCmd groups symbol inspection commands.
var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Inspect indexed symbols (list, find)",
}

var symbolsListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List all symbols indexed for a file",
	Args:  cobra.ExactArgs(1),
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

		records, err := st.SymbolsForFile(args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("No symbols for %s\n", args[0])
			return nil
		}
		printSymbols(records)
		return nil
	},
}

var symbolsFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find symbols by exact name",
	Long: `Finds indexed symbols with the given name, optionally filtered by
kind (function, method, struct, class, trait, interface, enum, ...).

Example:
  repolens symbols find New --kind function`,
	Args: cobra.ExactArgs(1),
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

		records, err := st.FindSymbols(args[0], symbolsKind)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("No symbols named %q\n", args[0])
			return nil
		}
		printSymbols(records)
		return nil
	},
}

func printSymbols(records []store.SymbolRecord) {
	for _, rec := range records {
		fmt.Printf("%-10s %-30s %s:%d\n", rec.Kind, rec.Name, rec.File, rec.StartLine)
		if rec.Signature != "" {
			fmt.Printf("           %s\n", rec.Signature)
		}
		if len(rec.Annotations) > 0 {
			keys := make([]string, 0, len(rec.Annotations))
			for k := range rec.Annotations {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var parts []string
			for _, k := range keys {
				vals := rec.Annotations[k]
				if len(vals) == 1 && vals[0] == "true" {
					parts = append(parts, k)
				} else {
					parts = append(parts, k+"="+strings.Join(vals, ","))
				}
			}
			fmt.Printf("           [%s]\n", strings.Join(parts, " "))
		}
	}
}

func init() {
	symbolsFindCmd.Flags().StringVar(&symbolsKind, "kind", "", "Filter by symbol kind")
	symbolsCmd.AddCommand(symbolsListCmd)
	symbolsCmd.AddCommand(symbolsFindCmd)
}
