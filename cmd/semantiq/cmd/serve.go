package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/httpapi"
	"github.com/semantiq-dev/semantiq/internal/indexer"
	"github.com/semantiq-dev/semantiq/internal/logging"
	"github.com/semantiq-dev/semantiq/internal/mcp"
	"github.com/semantiq-dev/semantiq/internal/search"
	"github.com/semantiq-dev/semantiq/internal/store"
	"github.com/semantiq-dev/semantiq/internal/update"
	"github.com/semantiq-dev/semantiq/internal/watcher"
	"github.com/semantiq-dev/semantiq/pkg/version"
)

// databaseFileName is the on-disk index file, rooted at the project directory.
const databaseFileName = ".semantiq.db"

// watcherPollInterval is how often the auto-indexer drains the watcher's
// debounced event queue while serving.
const watcherPollInterval = 2 * time.Second

func newServeCmd() *cobra.Command {
	var httpPort int
	var corsOrigin string
	var noUpdateCheck bool
	var projectPath string
	var databasePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index over MCP (stdio) or a JSON HTTP API",
		Long: `Serve starts a long-running server over the project's index.

With no flags it speaks the Model Context Protocol over stdio, the mode
coding assistants connect to. With --http-port it instead exposes a plain
JSON REST API for the interactive demo frontend; the two modes are
mutually exclusive, matching how the MCP stdio transport and an HTTP
listener cannot share the same process's stdio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), httpPort, corsOrigin, noUpdateCheck, projectPath, databasePath)
		},
	}

	cmd.Flags().IntVar(&httpPort, "http-port", 0, "Serve a JSON HTTP API on this port instead of MCP stdio")
	cmd.Flags().StringVar(&corsOrigin, "cors-origin", "", "Restrict HTTP API CORS to this origin (default: allow all, with a warning)")
	cmd.Flags().BoolVar(&noUpdateCheck, "no-update-check", false, "Skip the background check for a newer semantiq release")
	cmd.Flags().StringVar(&projectPath, "project", "", "Project root to serve (default: discovered from the working directory)")
	cmd.Flags().StringVar(&databasePath, "database", "", "Path to the index database (default: <project root>/"+databaseFileName+")")

	return cmd
}

// runServe opens the project index, starts the background file watcher and
// auto-indexer, and then blocks serving either the MCP stdio transport or
// the HTTP API, depending on httpPort.
func runServe(ctx context.Context, httpPort int, corsOrigin string, noUpdateCheck bool, projectPath, databasePath string) error {
	if noUpdateCheck {
		update.DisableUpdateCheck()
	}
	checkForUpdateInBackground()

	root := projectPath
	if root == "" {
		var err error
		root, err = config.FindProjectRoot(".")
		if err != nil {
			root, _ = os.Getwd()
		}
	}

	dbPath := databasePath
	if dbPath == "" {
		dbPath = filepath.Join(root, databaseFileName)
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return fmt.Errorf("no index found at %s: run 'semantiq index' first", dbPath)
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

	stopWatching, err := startBackgroundIndexer(ctx, st, root)
	if err != nil {
		slog.Warn("file watcher failed to start, serving without live re-indexing", slog.String("error", err.Error()))
	} else {
		defer stopWatching()
	}

	if httpPort > 0 {
		return serveHTTP(ctx, engine, st, httpPort, corsOrigin)
	}
	return serveMCP(ctx, engine)
}

// serveMCP speaks the MCP protocol over stdio. stdout is reserved
// exclusively for JSON-RPC, so logging must never reach it regardless of
// whether --debug configured file logging for this run.
func serveMCP(ctx context.Context, engine *search.Engine) error {
	if !debugMode {
		cleanup, err := logging.SetupMCPMode()
		if err != nil {
			return fmt.Errorf("setup mcp logging: %w", err)
		}
		defer cleanup()
	}

	srv, err := mcp.NewServer(engine)
	if err != nil {
		return fmt.Errorf("build mcp server: %w", err)
	}
	return srv.Serve(ctx)
}

func serveHTTP(ctx context.Context, engine *search.Engine, st *store.Store, port int, corsOrigin string) error {
	srv := httpapi.New(engine, st, corsOrigin)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf(":%d", port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// startBackgroundIndexer starts the hybrid file watcher and drives the
// auto-indexer off its event queue on a fixed cadence, returning a stop
// function. Startup never blocks on the watcher: the MCP handshake must
// complete well within its timeout regardless of filesystem size.
func startBackgroundIndexer(ctx context.Context, st *store.Store, root string) (func(), error) {
	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		if startErr := w.Start(watchCtx, root); startErr != nil {
			slog.Error("file watcher stopped", slog.String("error", startErr.Error()))
		}
	}()

	autoIndexer := indexer.NewAutoIndexer(st, w, root)
	go func() {
		ticker := time.NewTicker(watcherPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				if _, procErr := autoIndexer.ProcessEvents(watchCtx); procErr != nil {
					slog.Error("auto-index cycle failed", slog.String("error", procErr.Error()))
				}
			}
		}
	}()

	return func() {
		cancel()
		_ = w.Stop()
	}, nil
}

func checkForUpdateInBackground() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		info, err := update.CheckForUpdate(ctx, version.Version, update.ConfigFromEnv())
		if err != nil {
			return
		}
		update.NotifyUpdate(info)
	}()
}
