// Package threshold implements adaptive per-language distance thresholds
// for the semantic search strategy: a bounded observation collector, the
// statistics it feeds, and the calibrator that turns those statistics into
// (max_distance, min_similarity) pairs.
package threshold

import (
	"math"
	"sort"
)

// DistanceStats summarizes a set of distance observations.
type DistanceStats struct {
	Count  int
	Mean   float32
	StdDev float32
	Min    float32
	Max    float32
	P10    float32
	P25    float32
	P50    float32
	P75    float32
	P90    float32
	P95    float32
}

// ComputeStats computes DistanceStats over distances, or returns false if
// distances is empty.
func ComputeStats(distances []float32) (DistanceStats, bool) {
	if len(distances) == 0 {
		return DistanceStats{}, false
	}

	sorted := make([]float32, len(distances))
	copy(sorted, distances)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	count := len(sorted)
	var sum float32
	for _, d := range sorted {
		sum += d
	}
	mean := sum / float32(count)

	var variance float32
	for _, d := range sorted {
		diff := d - mean
		variance += diff * diff
	}
	variance /= float32(count)
	stdDev := float32(math.Sqrt(float64(variance)))

	return DistanceStats{
		Count:  count,
		Mean:   mean,
		StdDev: stdDev,
		Min:    sorted[0],
		Max:    sorted[count-1],
		P10:    percentile(sorted, 10),
		P25:    percentile(sorted, 25),
		P50:    percentile(sorted, 50),
		P75:    percentile(sorted, 75),
		P90:    percentile(sorted, 90),
		P95:    percentile(sorted, 95),
	}, true
}

// percentile computes p (0-100) over a slice already sorted ascending,
// by linear interpolation between the two bracketing order statistics.
func percentile(sorted []float32, p float64) float32 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}

	n := float64(len(sorted))
	index := (p / 100.0) * (n - 1.0)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	fraction := float32(index - float64(lower))
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}

// DistanceToSimilarity converts an L2 distance to a [0,1] similarity score.
func DistanceToSimilarity(distance float32) float32 {
	return 1.0 / (1.0 + distance)
}

// SimilarityToDistance inverts DistanceToSimilarity.
func SimilarityToDistance(similarity float32) float32 {
	if similarity <= 0 {
		return math.MaxFloat32
	}
	return (1.0 / similarity) - 1.0
}
