package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/store"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool
	var databasePath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  `Display file, symbol, chunk, and dependency counts for the current index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, jsonOutput, databasePath)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&databasePath, "database", "", "Path to the index database (default: <project root>/"+databaseFileName+")")

	return cmd
}

func runStats(cmd *cobra.Command, jsonOutput bool, databasePath string) error {
	dbPath := databasePath
	if dbPath == "" {
		root, err := config.FindProjectRoot(".")
		if err != nil {
			root, _ = os.Getwd()
		}
		dbPath = filepath.Join(root, databaseFileName)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found at %s: run 'semantiq index' first", dbPath)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = st.Close() }()

	stats, err := st.GetStats()
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Index statistics")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "Files:        %d\n", stats.FileCount)
	fmt.Fprintf(w, "Symbols:      %d\n", stats.SymbolCount)
	fmt.Fprintf(w, "Chunks:       %d\n", stats.ChunkCount)
	fmt.Fprintf(w, "Dependencies: %d\n", stats.DependencyCount)

	return nil
}
