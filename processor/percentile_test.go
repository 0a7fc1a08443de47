package processor

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeThresholdsNearestRank(t *testing.T) {
	values := []float32{9, 1, 7, 3, 5}
	sorted := append([]float32(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, p := range []int{0, 10, 25, 50, 75, 90, 100} {
		buf := append([]float32(nil), values...)
		got := ComputeThresholds([]int{p}, buf)
		require.Len(t, got, 1)

		idx := int(math.Floor(float64(p) / 100.0 * float64(len(sorted))))
		if idx > len(sorted)-1 {
			idx = len(sorted) - 1
		}
		assert.Equal(t, sorted[idx], got[0], "rank %d", p)
	}
}

func TestComputeThresholdsClampsRankHundred(t *testing.T) {
	// floor(100/100*n) == n would overflow; it must clamp to the maximum
	got := ComputeThresholds([]int{100}, []float32{2, 8, 4})
	assert.Equal(t, []float32{8}, got)
}

func TestComputeThresholdsRankZero(t *testing.T) {
	got := ComputeThresholds([]int{0}, []float32{2, 8, 4})
	assert.Equal(t, []float32{2}, got)
}

func TestComputeThresholdsDuplicateRanks(t *testing.T) {
	got := ComputeThresholds([]int{50, 50, 90}, []float32{1, 2, 3, 4})
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, []float32{3, 3, 4}, got)
}

func TestComputeThresholdsIdempotentOnSortedInput(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6}
	ranks := []int{25, 50, 75}
	first := ComputeThresholds(ranks, values)
	second := ComputeThresholds(ranks, values)
	assert.Equal(t, first, second)
}

func TestComputeThresholdsSortsCallerBuffer(t *testing.T) {
	values := []float32{3, 1, 2}
	ComputeThresholds([]int{50}, values)
	assert.Equal(t, []float32{1, 2, 3}, values)
}

func TestThresholdBandName(t *testing.T) {
	assert.Equal(t, "ndvi_p90_threshold", ThresholdBandName("ndvi", 90))
	assert.Equal(t, "b1_+_b2_p5_threshold", ThresholdBandName("b1_+_b2", 5))
}
