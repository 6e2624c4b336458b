package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/extract"
	"github.com/semantiq-dev/semantiq/internal/lang"
	"github.com/semantiq-dev/semantiq/internal/store"
	"github.com/semantiq-dev/semantiq/internal/watcher"
	"github.com/semantiq-dev/semantiq/pkg/version"
)

// BulkResult summarizes one full-workspace index run.
type BulkResult struct {
	Files   int
	Symbols int
	Chunks  int
	Deps    int
	Skipped int
	Elapsed time.Duration
}

// BulkIndexer walks an entire project tree and (re)populates the store,
// including embedding generation for newly inserted chunks. Used by the
// `index` command for the initial index and explicit re-index runs.
type BulkIndexer struct {
	store       *store.Store
	embedder    embed.EmbeddingModel
	projectRoot string
	workers     int

	// parser and chunker are shared across goroutines; lang.Parser and
	// extract.ChunkExtractor are stateless wrappers around tree-sitter
	// parsers that each Parse call creates fresh, so this is safe.
	parser  *lang.Parser
	chunker *extract.ChunkExtractor
}

// NewBulkIndexer builds a BulkIndexer. embedder may be nil, in which case
// chunks are stored without embeddings (vector search degrades to the
// text/symbol strategies only). Files are indexed sequentially unless
// WithWorkers raises the concurrency.
func NewBulkIndexer(st *store.Store, embedder embed.EmbeddingModel, projectRoot string) *BulkIndexer {
	return &BulkIndexer{
		store:       st,
		embedder:    embedder,
		projectRoot: projectRoot,
		workers:     1,
		parser:      lang.NewParser(),
		chunker:     extract.NewChunkExtractor(),
	}
}

// WithWorkers sets how many files are parsed, chunked, and embedded
// concurrently. The store itself serializes writes under its own lock, so
// raising this past 1 speeds up the CPU-bound parse/embed work without
// risking concurrent-write corruption. n <= 1 keeps sequential indexing.
func (b *BulkIndexer) WithWorkers(n int) *BulkIndexer {
	if n > 1 {
		b.workers = n
	}
	return b
}

// Run walks the project root, skipping excluded paths (see watcher.ExcludedPath)
// and oversized files, and indexes every file in a recognized language. A
// parser-version mismatch against the store's recorded metadata forces a
// full reindex of every file regardless of its content hash; force does
// the same unconditionally.
func (b *BulkIndexer) Run(ctx context.Context, force bool) (BulkResult, error) {
	start := time.Now()

	needsFullReindex, err := b.store.CheckAndPrepareForReindex(version.ParserVersion)
	if err != nil {
		return BulkResult{}, fmt.Errorf("check parser version: %w", err)
	}
	force = force || needsFullReindex

	var candidates []string
	walkErr := filepath.WalkDir(b.projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(b.projectRoot, path)
		if relErr != nil {
			relPath = path
		}
		if relPath != "." && watcher.ExcludedPath(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := lang.FromPath(relPath); !ok {
			return nil
		}

		candidates = append(candidates, relPath)
		return nil
	})
	if walkErr != nil {
		return BulkResult{}, fmt.Errorf("walk %s: %w", b.projectRoot, walkErr)
	}

	result, err := b.indexFiles(ctx, candidates, force)
	if err != nil {
		return result, err
	}

	result.Elapsed = time.Since(start)
	slog.Info("indexing complete",
		slog.Int("files", result.Files),
		slog.Int("symbols", result.Symbols),
		slog.Int("chunks", result.Chunks),
		slog.Int("dependencies", result.Deps),
		slog.Int("skipped", result.Skipped),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// indexFiles dispatches relPaths through indexFile, either sequentially or
// across b.workers goroutines bounded by an errgroup limit. Per-file
// results accumulate into a single BulkResult via atomic counters so both
// paths report identical totals regardless of worker count.
func (b *BulkIndexer) indexFiles(ctx context.Context, relPaths []string, force bool) (BulkResult, error) {
	var files, symbols, chunks, deps, skipped atomic.Int64
	var progressMu sync.Mutex
	reportProgress := func() {
		progressMu.Lock()
		defer progressMu.Unlock()
		n := files.Load()
		if n > 0 && n%100 == 0 {
			slog.Info("indexing in progress", slog.Int64("files", n))
		}
	}

	indexOne := func(relPath string) error {
		language, ok := lang.FromPath(relPath)
		if !ok {
			return nil
		}
		var r BulkResult
		if err := b.indexFile(ctx, relPath, language, force, &r); err != nil {
			slog.Warn("skipping file", slog.String("path", relPath), slog.String("error", err.Error()))
			skipped.Add(1)
			return nil
		}
		files.Add(int64(r.Files))
		symbols.Add(int64(r.Symbols))
		chunks.Add(int64(r.Chunks))
		deps.Add(int64(r.Deps))
		skipped.Add(int64(r.Skipped))
		reportProgress()
		return nil
	}

	if b.workers <= 1 {
		for _, relPath := range relPaths {
			if ctx.Err() != nil {
				break
			}
			_ = indexOne(relPath)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.workers)
		for _, relPath := range relPaths {
			relPath := relPath
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return indexOne(relPath)
			})
		}
		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return BulkResult{}, err
		}
	}

	return BulkResult{
		Files:   int(files.Load()),
		Symbols: int(symbols.Load()),
		Chunks:  int(chunks.Load()),
		Deps:    int(deps.Load()),
		Skipped: int(skipped.Load()),
	}, nil
}

func (b *BulkIndexer) indexFile(ctx context.Context, relPath string, language lang.Name, force bool, result *BulkResult) error {
	absPath := filepath.Join(b.projectRoot, relPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if info.Size() > watcher.MaxIndexableFileSize {
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	if !force {
		stale, err := b.store.NeedsReindex(relPath, string(content))
		if err != nil {
			return fmt.Errorf("check reindex: %w", err)
		}
		if !stale {
			result.Skipped++
			return nil
		}
	}

	fileID, err := b.store.InsertFile(relPath, string(language), string(content), info.Size(), info.ModTime().Unix())
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	parsed, err := b.parser.Parse(ctx, content, language)
	if err != nil {
		slog.Warn("parse failed", slog.String("path", relPath), slog.String("error", err.Error()))
		result.Files++
		return nil
	}
	defer parsed.Close()

	symbols := extract.Symbols(parsed.Root(), parsed.Source, language)
	if err := b.store.InsertSymbols(fileID, symbols); err != nil {
		return fmt.Errorf("insert symbols: %w", err)
	}
	result.Symbols += len(symbols)

	chunks := b.chunker.Extract(parsed.Root(), parsed.Source, language)
	if err := b.store.InsertChunks(fileID, chunks); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	result.Chunks += len(chunks)

	if b.embedder != nil {
		b.embedChunks(ctx, fileID)
	}

	imports := extract.Imports(parsed.Root(), parsed.Source, language)
	if err := b.store.DeleteDependencies(fileID); err != nil {
		return fmt.Errorf("clear dependencies: %w", err)
	}
	for _, imp := range imports {
		if err := b.store.InsertDependency(fileID, imp.Path, imp.Name, imp.Kind); err != nil {
			return fmt.Errorf("insert dependency: %w", err)
		}
	}
	result.Deps += len(imports)

	result.Files++
	return nil
}

// embedChunks generates and stores embeddings for every chunk belonging to
// fileID, the way the original walk does it: inline, right after the
// chunks themselves are inserted, rather than as a deferred backfill pass.
// A failed embedding for one chunk is logged and skipped; it does not fail
// the whole file.
func (b *BulkIndexer) embedChunks(ctx context.Context, fileID int64) {
	chunks, err := b.store.GetChunksByFile(fileID)
	if err != nil {
		slog.Warn("could not load chunks for embedding", slog.Int64("file_id", fileID), slog.String("error", err.Error()))
		return
	}
	for _, chunk := range chunks {
		vec, err := b.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			slog.Debug("embedding failed", slog.Int64("chunk_id", chunk.ID), slog.String("error", err.Error()))
			continue
		}
		if err := b.store.UpdateChunkEmbedding(chunk.ID, vec); err != nil {
			slog.Warn("failed to store embedding", slog.Int64("chunk_id", chunk.ID), slog.String("error", err.Error()))
		}
	}
}

// BackfillEmbeddings embeds every chunk still missing a vector, in batches
// of batchSize, until none remain or ctx is cancelled. It catches chunks
// inserted while no embedder was configured (see
// Store.GetChunksWithoutEmbeddings).
func (b *BulkIndexer) BackfillEmbeddings(ctx context.Context, batchSize int) (int, error) {
	if b.embedder == nil {
		return 0, fmt.Errorf("no embedding model configured")
	}
	if batchSize <= 0 {
		batchSize = embed.DefaultBatchSize
	}

	var total int
	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		chunks, err := b.store.GetChunksWithoutEmbeddings(batchSize)
		if err != nil {
			return total, fmt.Errorf("load chunks without embeddings: %w", err)
		}
		if len(chunks) == 0 {
			return total, nil
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed batch: %w", err)
		}
		for i, c := range chunks {
			if err := b.store.UpdateChunkEmbedding(c.ID, vectors[i]); err != nil {
				slog.Warn("failed to store embedding", slog.Int64("chunk_id", c.ID), slog.String("error", err.Error()))
				continue
			}
			total++
		}
	}
}
