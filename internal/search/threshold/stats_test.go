package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats_EmptyReturnsFalse(t *testing.T) {
	_, ok := ComputeStats(nil)
	assert.False(t, ok)
}

func TestComputeStats_BasicDistribution(t *testing.T) {
	distances := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	stats, ok := ComputeStats(distances)
	require.True(t, ok)

	assert.Equal(t, 10, stats.Count)
	assert.InDelta(t, 0.1, stats.Min, 0.001)
	assert.InDelta(t, 1.0, stats.Max, 0.001)
	assert.InDelta(t, 0.55, stats.Mean, 0.01)
	assert.InDelta(t, 0.55, stats.P50, 0.1)
}

func TestComputeStats_SingleValue(t *testing.T) {
	stats, ok := ComputeStats([]float32{0.42})
	require.True(t, ok)
	assert.Equal(t, float32(0.42), stats.Min)
	assert.Equal(t, float32(0.42), stats.Max)
	assert.Equal(t, float32(0.42), stats.P50)
	assert.Equal(t, float32(0), stats.StdDev)
}

func TestDistanceSimilarityRoundTrip(t *testing.T) {
	for _, distance := range []float32{0, 0.1, 0.5, 1.0, 2.0} {
		similarity := DistanceToSimilarity(distance)
		back := SimilarityToDistance(similarity)
		assert.InDelta(t, distance, back, 0.001)
	}
}

func TestDistanceToSimilarity_ZeroDistanceIsPerfectMatch(t *testing.T) {
	assert.Equal(t, float32(1.0), DistanceToSimilarity(0))
}
