package threshold

// CalibrationConfig tunes which percentiles the calibrator reads off the
// distance distribution.
type CalibrationConfig struct {
	MinSamples           int
	DistancePercentile   float64
	SimilarityPercentile float64
}

// DefaultCalibrationConfig matches the defaults used throughout this
// package: 90th percentile for the distance ceiling, 10th for the
// similarity floor.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		MinSamples:           MinSamplesForCalibration,
		DistancePercentile:   90.0,
		SimilarityPercentile: 10.0,
	}
}

// CalibrationResult is the outcome of one calibration attempt, successful
// or not.
type CalibrationResult struct {
	Thresholds LanguageThresholds
	Language   string // empty for the global calibration
	Success    bool
	Message    string
}

// Calibrator derives LanguageThresholds from raw distance observations.
type Calibrator struct {
	config CalibrationConfig
}

// NewCalibrator builds a Calibrator with the default configuration.
func NewCalibrator() *Calibrator {
	return NewCalibratorWithConfig(DefaultCalibrationConfig())
}

// NewCalibratorWithConfig builds a Calibrator with a custom configuration.
func NewCalibratorWithConfig(cfg CalibrationConfig) *Calibrator {
	return &Calibrator{config: cfg}
}

// CalibrateLanguage computes thresholds for one language's observations.
func (c *Calibrator) CalibrateLanguage(language string, distances []float32) CalibrationResult {
	return c.calibrate(language, distances)
}

// CalibrateGlobal computes thresholds over every observation, regardless
// of language.
func (c *Calibrator) CalibrateGlobal(distances []float32) CalibrationResult {
	return c.calibrate("", distances)
}

func (c *Calibrator) calibrate(language string, distances []float32) CalibrationResult {
	label := language
	if label == "" {
		label = "global"
	}

	if len(distances) < c.config.MinSamples {
		return CalibrationResult{
			Thresholds: DefaultLanguageThresholds(),
			Language:   language,
			Success:    false,
			Message:    "insufficient samples for " + label,
		}
	}

	stats, ok := ComputeStats(distances)
	if !ok {
		return CalibrationResult{
			Thresholds: DefaultLanguageThresholds(),
			Language:   language,
			Success:    false,
			Message:    "failed to compute statistics for " + label,
		}
	}

	thresholds := c.computeThresholds(stats, len(distances))
	return CalibrationResult{
		Thresholds: thresholds,
		Language:   language,
		Success:    true,
		Message:    "calibrated " + label,
	}
}

func (c *Calibrator) computeThresholds(stats DistanceStats, sampleCount int) LanguageThresholds {
	maxDistance := clamp(percentileFromStats(stats, c.config.DistancePercentile), 0.5, 3.0)

	lowDistance := percentileFromStats(stats, c.config.SimilarityPercentile)
	minSimilarity := clamp(DistanceToSimilarity(lowDistance), 0.1, 0.8)

	return Calibrated(maxDistance, minSimilarity, sampleCount, stats)
}

// percentileFromStats picks the closest precomputed percentile bucket,
// matching the original's coarse-bucketed lookup rather than
// re-interpolating.
func percentileFromStats(stats DistanceStats, p float64) float32 {
	switch {
	case p <= 15:
		return stats.P10
	case p <= 30:
		return stats.P25
	case p <= 60:
		return stats.P50
	case p <= 80:
		return stats.P75
	case p <= 92:
		return stats.P90
	default:
		return stats.P95
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CalibrateAll builds a complete Config from per-language observation
// maps: one calibration per language plus a global calibration over the
// union of all distances. Languages or the global set that don't clear
// MinSamples keep their entry absent (Get then falls back through the
// cascade).
func (c *Calibrator) CalibrateAll(observations map[string][]float32) *Config {
	cfg := NewConfig()
	var all []float32

	for language, distances := range observations {
		all = append(all, distances...)
		if result := c.CalibrateLanguage(language, distances); result.Success {
			cfg.Set(language, result.Thresholds)
		}
	}

	if result := c.CalibrateGlobal(all); result.Success {
		cfg.SetGlobal(result.Thresholds)
	}

	return cfg
}
