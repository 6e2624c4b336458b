package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/indexer"
	"github.com/semantiq-dev/semantiq/internal/output"
	"github.com/semantiq-dev/semantiq/internal/store"
)

func newIndexCmd() *cobra.Command {
	var force bool
	var databasePath string

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory for searching",
		Long: `Index a directory to enable hybrid search over its contents.

This scans files, extracts symbols and dependencies, chunks code, and
generates embeddings, storing everything in the project's index
database. Use --force to reindex every file regardless of whether its
content has changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			return runIndex(ctx, cmd, path, force, databasePath)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reindex every file, ignoring content hashes")
	cmd.Flags().StringVar(&databasePath, "database", "", "Path to the index database (default: <project root>/"+databaseFileName+")")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string, force bool, databasePath string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	root, err := config.FindProjectRoot(absPath)
	if err != nil {
		root = absPath
	}

	dbPath := databasePath
	if dbPath == "" {
		dbPath = filepath.Join(root, databaseFileName)
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

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Status("", fmt.Sprintf("Indexing %s...", root))

	bulk := indexer.NewBulkIndexer(st, embedder, root).WithWorkers(cfg.Performance.IndexWorkers)
	result, err := bulk.Run(ctx, force)
	if err != nil {
		return fmt.Errorf("index run: %w", err)
	}

	out.Successf("Indexed %d file(s), %d symbol(s), %d chunk(s), %d dependency edge(s) in %s (skipped %d unchanged)",
		result.Files, result.Symbols, result.Chunks, result.Deps, result.Elapsed.Round(time.Millisecond), result.Skipped)

	return nil
}
