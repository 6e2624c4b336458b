package threshold

// DefaultMaxDistance is the hard-coded L2 distance ceiling used until a
// language has enough calibration data.
const DefaultMaxDistance float32 = 1.2

// DefaultMinSimilarity is the hard-coded similarity floor used alongside
// DefaultMaxDistance.
const DefaultMinSimilarity float32 = 0.3

// MinSamplesForCalibration is the minimum observation count before a
// language's thresholds are considered calibratable at all.
const MinSamplesForCalibration = 100

// Confidence grades how much a calibration should be trusted, by sample
// count.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

// ConfidenceFromCount buckets a sample count into a Confidence level.
func ConfidenceFromCount(count int) Confidence {
	switch {
	case count < MinSamplesForCalibration:
		return ConfidenceNone
	case count < 500:
		return ConfidenceLow
	case count < 2000:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Sufficient reports whether this confidence level is trustworthy enough
// to use calibrated thresholds instead of falling back.
func (c Confidence) Sufficient() bool {
	return c == ConfidenceMedium || c == ConfidenceHigh
}

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "none"
	}
}

// ParseConfidence parses a Confidence's String() form, defaulting to
// ConfidenceNone for anything unrecognized (including a saved calibration
// row from before a confidence rename).
func ParseConfidence(s string) Confidence {
	switch s {
	case "low":
		return ConfidenceLow
	case "medium":
		return ConfidenceMedium
	case "high":
		return ConfidenceHigh
	default:
		return ConfidenceNone
	}
}

// LanguageThresholds is the calibrated (or default) pair the engine uses
// to cut off semantic search results for one language.
type LanguageThresholds struct {
	MaxDistance   float32
	MinSimilarity float32
	Confidence    Confidence
	SampleCount   int
	Stats         *DistanceStats
}

// DefaultLanguageThresholds returns the hard-coded fallback thresholds
// with ConfidenceNone.
func DefaultLanguageThresholds() LanguageThresholds {
	return LanguageThresholds{
		MaxDistance:   DefaultMaxDistance,
		MinSimilarity: DefaultMinSimilarity,
		Confidence:    ConfidenceNone,
	}
}

// Calibrated builds thresholds from a calibration run, deriving confidence
// from the sample count.
func Calibrated(maxDistance, minSimilarity float32, sampleCount int, stats DistanceStats) LanguageThresholds {
	return LanguageThresholds{
		MaxDistance:   maxDistance,
		MinSimilarity: minSimilarity,
		Confidence:    ConfidenceFromCount(sampleCount),
		SampleCount:   sampleCount,
		Stats:         &stats,
	}
}

// ShouldUse reports whether these thresholds are trustworthy enough to
// apply instead of falling back to the next tier of the cascade.
func (t LanguageThresholds) ShouldUse() bool {
	return t.Confidence.Sufficient()
}

// Config holds every calibrated threshold: one set per language observed
// plus a global aggregate, consulted via the fallback cascade in Get.
type Config struct {
	PerLanguage  map[string]LanguageThresholds
	Global       LanguageThresholds
	CalibratedAt int64
}

// NewConfig returns an empty configuration; Get on it always falls back
// to the hard-coded defaults.
func NewConfig() *Config {
	return &Config{
		PerLanguage: make(map[string]LanguageThresholds),
		Global:      DefaultLanguageThresholds(),
	}
}

// Set records calibrated thresholds for one language.
func (c *Config) Set(language string, t LanguageThresholds) {
	c.PerLanguage[language] = t
}

// SetGlobal records the calibrated global (all-language) thresholds.
func (c *Config) SetGlobal(t LanguageThresholds) {
	c.Global = t
}

// Get resolves (max_distance, min_similarity) for language via the
// fallback cascade: calibrated per-language, then calibrated global, then
// hard-coded defaults.
func (c *Config) Get(language string) (float32, float32) {
	if language != "" {
		if t, ok := c.PerLanguage[language]; ok && t.ShouldUse() {
			return t.MaxDistance, t.MinSimilarity
		}
	}
	if c.Global.ShouldUse() {
		return c.Global.MaxDistance, c.Global.MinSimilarity
	}
	return DefaultMaxDistance, DefaultMinSimilarity
}
