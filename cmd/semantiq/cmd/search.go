package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/output"
	"github.com/semantiq-dev/semantiq/internal/search"
	"github.com/semantiq-dev/semantiq/internal/store"
)

type searchOptions struct {
	limit  int
	format string // "text" or "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Long: `Search the indexed codebase using fused semantic, symbol, and
textual retrieval.

Examples:
  semantiq search "authentication middleware"
  semantiq search "handleRequest" --limit 5
  semantiq search "error handling" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	dbPath := filepath.Join(root, databaseFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'semantiq index' first")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = st.Close() }()

	embedder, err := embed.NewEmbeddingModel(ctx, embed.ProviderStatic)
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	engine := search.NewEngine(st, root, embedder)

	results, err := engine.Search(ctx, query, opts.limit, search.Options{})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if results.IsEmpty() {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return formatSearchText(out, results)
	}
}

func formatSearchText(out *output.Writer, results search.Results) error {
	out.Statusf("", "Found %d result(s) for %q (%dms):", results.TotalCount, results.Query, results.SearchTimeMs)
	out.Newline()

	for i, r := range results.Results {
		out.Statusf("", "%d. %s (score: %.2f)", i+1, r.Location(), r.Score)
		for _, line := range snippetLines(r.Content, 3) {
			out.Status("", "   "+line)
		}
		out.Newline()
	}

	return nil
}

func snippetLines(content string, n int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
