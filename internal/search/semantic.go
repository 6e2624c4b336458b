package search

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/semantiq-dev/semantiq/internal/search/threshold"
	"github.com/semantiq-dev/semantiq/internal/store"
)

// searchSemantic runs vector-similarity search: embed the query, pull the
// nearest chunks from the store, cut them off at an adaptive per-language
// distance threshold, and score the survivors by 1/(1+distance).
func (e *Engine) searchSemantic(ctx context.Context, queryText string, limit int, opts Options) ([]Result, error) {
	if e.embedder == nil {
		return nil, nil
	}

	queryEmbedding, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	similar, err := e.store.SearchSimilarChunks(queryEmbedding, limit*2)
	if err != nil {
		return nil, err
	}
	if len(similar) == 0 {
		return nil, nil
	}

	e.collectDistanceObservations(queryText, similar)

	dominantLanguage := e.detectDominantLanguage(similar)
	maxDistance, minSimilarity := e.getThresholds(dominantLanguage)

	var chunkIDs []int64
	distanceByID := make(map[int64]float32, len(similar))
	for _, s := range similar {
		if s.Distance >= maxDistance {
			continue
		}
		chunkIDs = append(chunkIDs, s.ChunkID)
		distanceByID[s.ChunkID] = s.Distance
	}
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	chunks, err := e.store.GetChunksByIDs(chunkIDs)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, chunk := range chunks {
		distance, ok := distanceByID[chunk.ID]
		if !ok {
			continue
		}
		score := threshold.DistanceToSimilarity(distance)
		if score < minSimilarity {
			continue
		}

		filePath, err := e.store.GetChunkFilePath(chunk.FileID)
		if err != nil || filePath == "" {
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
		if ext != "" && !opts.AcceptsExtension(ext) {
			continue
		}

		var symbolName *string
		if len(chunk.Symbols) > 0 {
			symbolName = &chunk.Symbols[0]
		}
		matchType := "semantic"

		results = append(results, NewResult(
			ResultKindSemanticMatch,
			filePath,
			int(chunk.StartLine),
			int(chunk.EndLine),
			chunk.Content,
			score,
		).WithMetadata(ResultMetadata{
			SymbolName: symbolName,
			MatchType:  &matchType,
		}))

		if len(results) >= limit {
			break
		}
	}

	e.maybeFlushObservations()

	return results, nil
}

// collectDistanceObservations records distance observations from a
// semantic search batch for later threshold calibration, resolving each
// chunk's language through the store.
func (e *Engine) collectDistanceObservations(query string, similar []store.SimilarChunk) {
	if e.collector == nil {
		return
	}

	pairs := make([]threshold.ChunkDistance, len(similar))
	for i, s := range similar {
		pairs[i] = threshold.ChunkDistance{ChunkID: s.ChunkID, Distance: s.Distance}
	}

	e.collector.Record(query, pairs, func(chunkID int64) (string, bool) {
		lang, err := e.store.GetChunkLanguage(chunkID)
		if err != nil || lang == "" {
			return "", false
		}
		return lang, true
	})
}

// detectDominantLanguage picks the most common language among the top 5
// raw vector hits, used to select which per-language threshold to apply.
func (e *Engine) detectDominantLanguage(similar []store.SimilarChunk) string {
	if len(similar) == 0 {
		return ""
	}

	counts := make(map[string]int)
	n := len(similar)
	if n > 5 {
		n = 5
	}
	for _, s := range similar[:n] {
		lang, err := e.store.GetChunkLanguage(s.ChunkID)
		if err != nil || lang == "" {
			continue
		}
		counts[lang]++
	}

	var best string
	var bestCount int
	for lang, count := range counts {
		if count > bestCount {
			best = lang
			bestCount = count
		}
	}
	return best
}
