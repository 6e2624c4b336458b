// Package indexer ingests files into the store: a per-event pipeline driven
// by the watcher's event queue, and a full-workspace bulk walk for the
// initial index and re-index commands.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/semantiq-dev/semantiq/internal/extract"
	"github.com/semantiq-dev/semantiq/internal/lang"
	"github.com/semantiq-dev/semantiq/internal/store"
	"github.com/semantiq-dev/semantiq/internal/watcher"
)

// ProcessResult summarizes the outcome of one ProcessEvents call.
type ProcessResult struct {
	Indexed int
	Removed int
	Errors  int
}

// AutoIndexer drains the watcher's event queue and applies each surviving
// event to the store: create/modify re-extracts symbols, chunks, and
// dependencies for the file; delete cascades the row out of the store.
type AutoIndexer struct {
	store       *store.Store
	watcher     watcher.Watcher
	projectRoot string
	parser      *lang.Parser
	chunker     *extract.ChunkExtractor
}

// NewAutoIndexer builds an AutoIndexer over an already-started watcher.
func NewAutoIndexer(st *store.Store, w watcher.Watcher, projectRoot string) *AutoIndexer {
	return &AutoIndexer{
		store:       st,
		watcher:     w,
		projectRoot: projectRoot,
		parser:      lang.NewParser(),
		chunker:     extract.NewChunkExtractor(),
	}
}

// ProcessEvents drains pending watcher events and reindexes every changed
// file. Intended to be called on a fixed cadence (2s by default).
func (a *AutoIndexer) ProcessEvents(ctx context.Context) (ProcessResult, error) {
	events := a.watcher.PollEvents(ctx)
	if len(events) == 0 {
		return ProcessResult{}, nil
	}

	var result ProcessResult
	for _, event := range events {
		switch event.Operation {
		case watcher.OpCreate, watcher.OpModify:
			if err := a.indexFile(ctx, event.Path); err != nil {
				slog.Error("auto-index failed", slog.String("path", event.Path), slog.String("error", err.Error()))
				result.Errors++
			} else {
				result.Indexed++
			}
		case watcher.OpDelete:
			if err := a.removeFile(event.Path); err != nil {
				slog.Error("auto-remove failed", slog.String("path", event.Path), slog.String("error", err.Error()))
				result.Errors++
			} else {
				result.Removed++
			}
		}
	}

	if result.Indexed > 0 || result.Removed > 0 {
		slog.Info("auto-indexed",
			slog.Int("indexed", result.Indexed),
			slog.Int("removed", result.Removed),
			slog.Int("errors", result.Errors),
		)
	}

	return result, nil
}

// indexFile runs the single-file ingestion pipeline: detect language,
// read content, upsert the file row, parse, and replace its symbols,
// chunks, and dependencies. A parse failure leaves the file row in place
// but does not touch its symbol/chunk/dependency rows.
func (a *AutoIndexer) indexFile(ctx context.Context, relPath string) error {
	language, ok := lang.FromPath(relPath)
	if !ok {
		return nil
	}

	absPath := filepath.Join(a.projectRoot, relPath)
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return a.removeFile(relPath)
		}
		return fmt.Errorf("stat %s: %w", relPath, err)
	}
	if info.Size() > watcher.MaxIndexableFileSize {
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", relPath, err)
	}

	fileID, err := a.store.InsertFile(relPath, string(language), string(content), info.Size(), info.ModTime().Unix())
	if err != nil {
		return fmt.Errorf("insert file %s: %w", relPath, err)
	}

	result, err := a.parser.Parse(ctx, content, language)
	if err != nil {
		slog.Warn("parse failed, leaving prior symbols/chunks in place",
			slog.String("path", relPath), slog.String("error", err.Error()))
		return nil
	}
	defer result.Close()

	symbols := extract.Symbols(result.Root(), result.Source, language)
	if err := a.store.InsertSymbols(fileID, symbols); err != nil {
		return fmt.Errorf("insert symbols for %s: %w", relPath, err)
	}

	chunks := a.chunker.Extract(result.Root(), result.Source, language)
	if err := a.store.InsertChunks(fileID, chunks); err != nil {
		return fmt.Errorf("insert chunks for %s: %w", relPath, err)
	}

	imports := extract.Imports(result.Root(), result.Source, language)
	if err := a.store.DeleteDependencies(fileID); err != nil {
		return fmt.Errorf("clear dependencies for %s: %w", relPath, err)
	}
	for _, imp := range imports {
		if err := a.store.InsertDependency(fileID, imp.Path, imp.Name, imp.Kind); err != nil {
			return fmt.Errorf("insert dependency for %s: %w", relPath, err)
		}
	}

	return nil
}

func (a *AutoIndexer) removeFile(relPath string) error {
	if err := a.store.DeleteFile(relPath); err != nil {
		return fmt.Errorf("delete file %s: %w", relPath, err)
	}
	return nil
}
