package threshold

import (
	"hash/fnv"
	"sync"
	"time"
)

// DistanceObservation is a single distance reading recorded during search,
// tagged with the language of the matched chunk and the query that
// produced it.
type DistanceObservation struct {
	Language  string
	Distance  float32
	QueryHash uint64
	Timestamp int64
}

// NewDistanceObservation stamps an observation with the current time.
func NewDistanceObservation(language string, distance float32, queryHash uint64) DistanceObservation {
	return DistanceObservation{
		Language:  language,
		Distance:  distance,
		QueryHash: queryHash,
		Timestamp: time.Now().Unix(),
	}
}

// HashQuery hashes a query string for deduplication purposes.
func HashQuery(query string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(query))
	return h.Sum64()
}

// CollectorConfig tunes a Collector's buffering and sampling behavior.
type CollectorConfig struct {
	BufferSize         int
	SampleRate         float32
	MaxAgeDays         int64
	BootstrapThreshold int
	EnableBootstrap    bool
}

// DefaultCollectorConfig matches the reference defaults: a 100-entry
// buffer, 10% production sampling, 30-day retention, and a 500-observation
// bootstrap window during which every observation is kept.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		BufferSize:         100,
		SampleRate:         0.1,
		MaxAgeDays:         30,
		BootstrapThreshold: 500,
		EnableBootstrap:    true,
	}
}

// Collector accumulates distance observations during semantic search,
// sampling 100% of them while bootstrapping a language's statistics and
// dropping to a configured rate once enough history has built up.
type Collector struct {
	mu                sync.Mutex
	buffer            []DistanceObservation
	config            CollectorConfig
	sampleCounter     uint64
	inBootstrap       bool
	totalObservations int
	needsCalibration  bool
}

// NewCollector builds a Collector with the default configuration.
func NewCollector() *Collector {
	return NewCollectorWithConfig(DefaultCollectorConfig())
}

// NewCollectorWithConfig builds a Collector with a custom configuration.
func NewCollectorWithConfig(cfg CollectorConfig) *Collector {
	return &Collector{
		buffer:      make([]DistanceObservation, 0, cfg.BufferSize),
		config:      cfg,
		inBootstrap: cfg.EnableBootstrap,
	}
}

// NewProductionCollector builds a Collector that skips bootstrap entirely
// and samples at the configured production rate from the start.
func NewProductionCollector(cfg CollectorConfig) *Collector {
	return &Collector{
		buffer:            make([]DistanceObservation, 0, cfg.BufferSize),
		config:            cfg,
		inBootstrap:       false,
		totalObservations: cfg.BootstrapThreshold + 1,
	}
}

// WithExistingCount seeds the collector's total from a count already
// recorded in the store, switching straight to production mode if that
// count already clears the bootstrap threshold.
func (c *Collector) WithExistingCount(count int) *Collector {
	c.totalObservations = count
	if count >= c.config.BootstrapThreshold {
		c.inBootstrap = false
	}
	return c
}

// LanguageLookup resolves a chunk ID to the language of the chunk it
// belongs to, or false if unknown.
type LanguageLookup func(chunkID int64) (string, bool)

// Record samples a batch of (chunkID, distance) search results, recording
// one observation per result whose language resolves via lookup. Sampling
// is 100% during bootstrap and the configured rate in production. Returns
// whether anything was actually recorded (sampling may skip the whole
// batch).
func (c *Collector) Record(query string, results []ChunkDistance, lookup LanguageLookup) bool {
	if !c.shouldSample() {
		return false
	}

	queryHash := HashQuery(query)

	c.mu.Lock()
	recorded := 0
	for _, r := range results {
		if language, ok := lookup(r.ChunkID); ok {
			c.buffer = append(c.buffer, NewDistanceObservation(language, r.Distance, queryHash))
			recorded++
		}
	}
	c.mu.Unlock()

	if recorded > 0 {
		c.mu.Lock()
		c.totalObservations += recorded
		newTotal := c.totalObservations
		wasBootstrap := c.inBootstrap
		c.mu.Unlock()

		if wasBootstrap && newTotal >= c.config.BootstrapThreshold {
			c.exitBootstrap()
		}
	}

	return true
}

// ChunkDistance pairs a chunk ID with its distance from a query, the unit
// Record collects over.
type ChunkDistance struct {
	ChunkID  int64
	Distance float32
}

func (c *Collector) exitBootstrap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inBootstrap {
		return
	}
	c.inBootstrap = false
	c.needsCalibration = true
}

// ShouldCalibrate reports whether a calibration run should be triggered,
// consuming the flag so a subsequent call returns false until the next
// bootstrap exit.
func (c *Collector) ShouldCalibrate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.needsCalibration {
		c.needsCalibration = false
		return true
	}
	return false
}

// IsBootstrap reports whether the collector is still in bootstrap mode.
func (c *Collector) IsBootstrap() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inBootstrap
}

// TotalObservations returns the running count of observations recorded;
// observations dropped by sampling are not counted.
func (c *Collector) TotalObservations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalObservations
}

// BootstrapProgress reports bootstrap completion as a percentage (0-100).
// Returns 100 when bootstrap is disabled entirely.
func (c *Collector) BootstrapProgress() int {
	if !c.config.EnableBootstrap {
		return 100
	}
	c.mu.Lock()
	total := c.totalObservations
	c.mu.Unlock()

	progress := int(float32(total) / float32(c.config.BootstrapThreshold) * 100.0)
	if progress > 100 {
		progress = 100
	}
	return progress
}

// RecordSingle appends one observation directly, bypassing sampling.
// Used for backfilling from stored observations and in tests.
func (c *Collector) RecordSingle(obs DistanceObservation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = append(c.buffer, obs)
	c.totalObservations++
}

// NeedsFlush reports whether the buffer has reached its configured size
// and should be persisted to the store.
func (c *Collector) NeedsFlush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer) >= c.config.BufferSize
}

// TakeBuffer returns and clears the buffered observations.
func (c *Collector) TakeBuffer() []DistanceObservation {
	c.mu.Lock()
	defer c.mu.Unlock()
	taken := c.buffer
	c.buffer = make([]DistanceObservation, 0, c.config.BufferSize)
	return taken
}

// BufferLen reports the current buffer size.
func (c *Collector) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Config returns the collector's configuration.
func (c *Collector) Config() CollectorConfig {
	return c.config
}

// shouldSample decides, under the current mode, whether the next batch of
// observations should be kept: always in bootstrap, otherwise every Nth
// call where N = 1/sample_rate.
func (c *Collector) shouldSample() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inBootstrap {
		return true
	}
	if c.config.SampleRate >= 1.0 {
		return true
	}
	if c.config.SampleRate <= 0.0 {
		return false
	}

	c.sampleCounter++
	n := uint64(1.0 / c.config.SampleRate)
	if n == 0 {
		return true
	}
	return c.sampleCounter%n == 0
}
