package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/search/threshold"
	"github.com/semantiq-dev/semantiq/internal/store"
)

// maxSearchLimit caps the number of results a single call to Search may
// request, to bound memory use regardless of what a caller asks for.
const maxSearchLimit = 500

// Engine is the multi-strategy search and retrieval engine: it fuses
// semantic (vector), symbol (FTS5), and textual (grep-like) matches into
// a single ranked result set, and answers structural questions
// (references, dependencies, symbol explanations) against the same
// store.
type Engine struct {
	store    *store.Store
	rootPath string
	embedder embed.EmbeddingModel

	thresholdsMu sync.RWMutex
	thresholds   *threshold.Config

	collector *threshold.Collector
}

// NewEngine builds an Engine with distance-observation collection
// enabled, the common case in production use.
func NewEngine(st *store.Store, rootPath string, embedder embed.EmbeddingModel) *Engine {
	return NewEngineWithOptions(st, rootPath, embedder, true)
}

// NewEngineWithOptions builds an Engine, optionally disabling distance
// observation collection (useful in tests, where ML calibration isn't
// exercised).
func NewEngineWithOptions(st *store.Store, rootPath string, embedder embed.EmbeddingModel, enableCollection bool) *Engine {
	e := &Engine{
		store:      st,
		rootPath:   rootPath,
		embedder:   embedder,
		thresholds: loadThresholdsFromStore(st),
	}

	if enableCollection {
		counts, err := st.GetObservationCounts()
		existing := 0
		if err == nil {
			for _, c := range counts {
				existing += c
			}
		}
		e.collector = threshold.NewCollectorWithConfig(threshold.CollectorConfig{
			BufferSize:         50,
			SampleRate:         0.1,
			MaxAgeDays:         30,
			BootstrapThreshold: 500,
			EnableBootstrap:    true,
		}).WithExistingCount(existing)
	}

	return e
}

// Search runs the full three-strategy pipeline: semantic search first
// (if an embedding model is configured), then symbol search, then textual
// search to fill out the remainder, before deduplicating, score-filtering,
// and truncating to limit.
func (e *Engine) Search(ctx context.Context, queryText string, limit int, opts Options) (Results, error) {
	start := time.Now()
	query := NewQuery(queryText)

	safeLimit := limit
	if safeLimit > maxSearchLimit {
		safeLimit = maxSearchLimit
	}

	var all []Result

	if e.embedder != nil {
		semanticResults, err := e.searchSemantic(ctx, queryText, safeLimit, opts)
		if err != nil {
			return Results{}, fmt.Errorf("semantic search: %w", err)
		}
		all = append(all, semanticResults...)
	}

	symbolResults, err := e.searchSymbols(query, safeLimit, opts)
	if err != nil {
		return Results{}, fmt.Errorf("symbol search: %w", err)
	}
	all = append(all, symbolResults...)

	if len(all) < safeLimit {
		textResults, err := e.searchText(query, safeLimit-len(all), opts)
		if err != nil {
			return Results{}, fmt.Errorf("text search: %w", err)
		}
		all = append(all, textResults...)
	}

	sortByScoreDescending(all)
	all = dedupeResults(all)

	minScore := opts.EffectiveMinScore()
	filtered := all[:0]
	for _, r := range all {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}
	all = filtered

	if len(all) > safeLimit {
		all = all[:safeLimit]
	}

	elapsed := time.Since(start).Milliseconds()
	slog.Debug("search completed", slog.String("query", queryText), slog.Int("results", len(all)), slog.Int64("elapsed_ms", elapsed))

	return NewResults(queryText, all, elapsed), nil
}

// dedupeResults drops results sharing the same (file path, start line,
// content length), the cheapest fingerprint of "the same underlying
// match surfaced by two strategies".
func dedupeResults(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		key := fmt.Sprintf("%s:%d:%d", r.FilePath, r.StartLine, len(r.Content))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// loadThresholdsFromStore rebuilds a threshold.Config from whatever
// calibrations have been persisted, falling back to an empty (all-default)
// config on read failure.
func loadThresholdsFromStore(st *store.Store) *threshold.Config {
	cfg := threshold.NewConfig()

	records, err := st.LoadAllCalibrations()
	if err != nil {
		slog.Warn("failed to load calibrations", slog.String("error", err.Error()))
		return cfg
	}

	for _, rec := range records {
		thresholds := threshold.LanguageThresholds{
			MaxDistance:   rec.MaxDistance,
			MinSimilarity: rec.MinSimilarity,
			Confidence:    threshold.ParseConfidence(rec.Confidence),
			SampleCount:   rec.SampleCount,
		}

		if rec.Language == "_global" {
			cfg.SetGlobal(thresholds)
			cfg.CalibratedAt = rec.CalibratedAt
		} else {
			cfg.Set(rec.Language, thresholds)
		}
	}

	return cfg
}

// ReloadThresholds re-reads calibration data from the store, picking up
// any calibration run completed since the engine was constructed.
func (e *Engine) ReloadThresholds() {
	newConfig := loadThresholdsFromStore(e.store)
	e.thresholdsMu.Lock()
	e.thresholds = newConfig
	e.thresholdsMu.Unlock()
}

// getThresholds resolves (max_distance, min_similarity) for a language
// under the fallback cascade.
func (e *Engine) getThresholds(language string) (float32, float32) {
	e.thresholdsMu.RLock()
	defer e.thresholdsMu.RUnlock()
	return e.thresholds.Get(language)
}

// FlushObservations persists the collector's buffered observations to the
// store, returning how many were inserted.
func (e *Engine) FlushObservations() (int, error) {
	if e.collector == nil {
		return 0, nil
	}

	observations := e.collector.TakeBuffer()
	if len(observations) == 0 {
		return 0, nil
	}

	batch := make([]store.DistanceObservation, len(observations))
	for i, o := range observations {
		batch[i] = store.DistanceObservation{
			Language:  o.Language,
			Distance:  o.Distance,
			QueryHash: o.QueryHash,
			Timestamp: o.Timestamp,
		}
	}

	inserted, err := e.store.InsertDistanceObservationsBatch(batch)
	if err != nil {
		return 0, fmt.Errorf("flush observations: %w", err)
	}
	return inserted, nil
}

// minCalibrationSamples is the per-language sample floor auto-calibration
// requires before it will persist a calibration row, a lower bar than the
// manually-triggered `calibrate` command uses.
const minCalibrationSamples = 50

// AutoCalibrate recomputes thresholds from every observation recorded so
// far and persists the ones that clear minCalibrationSamples, then
// reloads the in-memory threshold config. Returns false if there were no
// observations to calibrate from.
func (e *Engine) AutoCalibrate() (bool, error) {
	allObservations, err := e.store.GetAllDistanceObservations()
	if err != nil {
		return false, fmt.Errorf("load observations: %w", err)
	}
	if len(allObservations) == 0 {
		return false, nil
	}

	calibrator := threshold.NewCalibratorWithConfig(threshold.CalibrationConfig{
		MinSamples:           minCalibrationSamples,
		DistancePercentile:   90.0,
		SimilarityPercentile: 10.0,
	})
	cfg := calibrator.CalibrateAll(allObservations)

	for language, thresholds := range cfg.PerLanguage {
		if thresholds.SampleCount < minCalibrationSamples {
			continue
		}
		if err := e.saveCalibration(language, thresholds); err != nil {
			return false, err
		}
	}

	if cfg.Global.SampleCount >= minCalibrationSamples {
		if err := e.saveCalibration("_global", cfg.Global); err != nil {
			return false, err
		}
	}

	e.ReloadThresholds()
	return true, nil
}

func (e *Engine) saveCalibration(language string, t threshold.LanguageThresholds) error {
	data := store.CalibrationData{
		Language:      language,
		MaxDistance:   t.MaxDistance,
		MinSimilarity: t.MinSimilarity,
		Confidence:    t.Confidence.String(),
		SampleCount:   t.SampleCount,
	}
	if t.Stats != nil {
		data.P50Distance = &t.Stats.P50
		data.P90Distance = &t.Stats.P90
		data.P95Distance = &t.Stats.P95
		data.MeanDistance = &t.Stats.Mean
		data.StdDistance = &t.Stats.StdDev
	}
	return e.store.SaveCalibration(data)
}

// maybeAutoCalibrate triggers AutoCalibrate once the collector signals
// that bootstrap has just completed.
func (e *Engine) maybeAutoCalibrate() {
	if e.collector == nil || !e.collector.ShouldCalibrate() {
		return
	}
	if _, err := e.AutoCalibrate(); err != nil {
		slog.Warn("auto-calibration failed", slog.String("error", err.Error()))
	}
}

// maybeFlushObservations flushes the collector's buffer once it's full,
// then checks whether that flush should trigger calibration.
func (e *Engine) maybeFlushObservations() {
	if e.collector == nil || !e.collector.NeedsFlush() {
		return
	}
	if _, err := e.FlushObservations(); err != nil {
		slog.Warn("failed to flush distance observations", slog.String("error", err.Error()))
	}
	e.maybeAutoCalibrate()
}

// BootstrapStatus reports the collector's bootstrap state. enabled is
// false when distance-observation collection was disabled at construction.
func (e *Engine) BootstrapStatus() (inBootstrap bool, progress int, total int, enabled bool) {
	if e.collector == nil {
		return false, 0, 0, false
	}
	return e.collector.IsBootstrap(), e.collector.BootstrapProgress(), e.collector.TotalObservations(), true
}
