package processor

import (
	"fmt"
	"math"
	"sort"
)

// ComputeThresholds returns one threshold per requested percentile rank
// using nearest-rank selection: the sorted sample at floor(p/100*n), clamped
// to the last valid index. No interpolation happens between samples; rank
// 100 reads the maximum, duplicate ranks are looked up independently.
//
// The sort reorders the caller's buffer in place; it must not be reused for
// anything but this call.
func ComputeThresholds(ranks []int, values []float32) []float32 {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	n := len(values)
	thresholds := make([]float32, len(ranks))
	for i, p := range ranks {
		idx := int(math.Floor(float64(p) / 100.0 * float64(n)))
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		thresholds[i] = values[idx]
	}
	return thresholds
}

// ThresholdBandName is the output band name for one percentile rank.
func ThresholdBandName(prefix string, rank int) string {
	return fmt.Sprintf("%s_p%d_threshold", prefix, rank)
}
