package fundamental

import (
	"math"
	"sort"
)

// AverageRatios builds the peer benchmark: for each ratio, the arithmetic
// mean of the peers that define it. Peers without a value for a ratio are
// left out of that ratio's mean entirely. No peers, or no defined value for
// a ratio, leaves the ratio undefined.
//
// Values are summed in ascending order so the benchmark does not depend on
// the order peers were supplied in, down to floating-point rounding.
func AverageRatios(peers []RatioSet) RatioSet {
	var avg RatioSet
	if len(peers) == 0 {
		return avg
	}
	for _, r := range AllRatios() {
		vals := definedValues(peers, r)
		if len(vals) == 0 {
			continue
		}
		avg.put(r, avgFloat(vals))
	}
	return avg
}

// definedValues collects the defined values of r across sets.
func definedValues(sets []RatioSet, r Ratio) []float64 {
	vals := make([]float64, 0, len(sets))
	for _, s := range sets {
		if v, ok := s.Get(r); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func avgFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := sortedCopy(vals)
	n := float64(len(sorted))
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n
	if math.IsInf(mean, 0) {
		// Sum overflowed; scale first.
		mean = 0
		for _, v := range sorted {
			mean += v / n
		}
	}
	return mean
}

func medianFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := sortedCopy(vals)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return sorted[mid-1]/2 + sorted[mid]/2
	}
	return sorted[mid]
}

func sortedCopy(vals []float64) []float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return sorted
}
