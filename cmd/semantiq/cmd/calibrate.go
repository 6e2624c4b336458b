package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/output"
	"github.com/semantiq-dev/semantiq/internal/search/threshold"
	"github.com/semantiq-dev/semantiq/internal/store"
)

func newCalibrateCmd() *cobra.Command {
	var language string
	var dryRun bool
	var minSamples int
	var databasePath string

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Recompute vector-search distance thresholds from recorded observations",
		Long: `Calibrate runs the percentile calibrator over distance observations
accumulated during search, deriving a per-language max-distance and
min-similarity cutoff. Results are persisted to the index so future
searches use them, unless --dry-run is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(cmd, language, dryRun, minSamples, databasePath)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Calibrate only this language (default: all languages plus the global fallback)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the computed thresholds without saving them")
	cmd.Flags().IntVar(&minSamples, "min-samples", threshold.MinSamplesForCalibration, "Minimum observation count required before a language is calibrated")
	cmd.Flags().StringVar(&databasePath, "database", "", "Path to the index database (default: <project root>/"+databaseFileName+")")

	return cmd
}

func runCalibrate(cmd *cobra.Command, language string, dryRun bool, minSamples int, databasePath string) error {
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

	allObservations, err := st.GetAllDistanceObservations()
	if err != nil {
		return fmt.Errorf("load observations: %w", err)
	}

	if language != "" {
		distances, ok := allObservations[language]
		if !ok {
			return fmt.Errorf("no observations recorded for language %q", language)
		}
		allObservations = map[string][]float32{language: distances}
	}

	out := output.New(cmd.OutOrStdout())

	calibrator := threshold.NewCalibratorWithConfig(threshold.CalibrationConfig{
		MinSamples:           minSamples,
		DistancePercentile:   90.0,
		SimilarityPercentile: 10.0,
	})
	cfg := calibrator.CalibrateAll(allObservations)

	saved := 0
	for lang, t := range cfg.PerLanguage {
		if t.SampleCount < minSamples {
			out.Statusf("-", "%s: only %d sample(s), below --min-samples %d, skipped", lang, t.SampleCount, minSamples)
			continue
		}
		out.Statusf("*", "%s: max-distance=%.4f min-similarity=%.4f confidence=%s (%d samples)",
			lang, t.MaxDistance, t.MinSimilarity, t.Confidence, t.SampleCount)
		if !dryRun {
			if err := saveLanguageCalibration(st, lang, t); err != nil {
				return fmt.Errorf("save calibration for %s: %w", lang, err)
			}
			saved++
		}
	}

	if cfg.Global.SampleCount >= minSamples {
		out.Statusf("*", "_global: max-distance=%.4f min-similarity=%.4f confidence=%s (%d samples)",
			cfg.Global.MaxDistance, cfg.Global.MinSimilarity, cfg.Global.Confidence, cfg.Global.SampleCount)
		if !dryRun {
			if err := saveLanguageCalibration(st, "_global", cfg.Global); err != nil {
				return fmt.Errorf("save global calibration: %w", err)
			}
			saved++
		}
	}

	if dryRun {
		out.Success("Dry run: no calibrations were saved")
	} else {
		out.Successf("Saved %d calibration(s)", saved)
	}

	return nil
}

func saveLanguageCalibration(st *store.Store, language string, t threshold.LanguageThresholds) error {
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
	return st.SaveCalibration(data)
}
