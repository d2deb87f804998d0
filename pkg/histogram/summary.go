package histogram

import (
	"math"
	"slices"
)

// Percentile thresholds reported in a Summary.
const (
	percentileMedian = 0.5
	percentileP95    = 0.95
)

// Summary holds descriptive statistics of a series.
// Standard deviation is the population value (divide by n).
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes a Summary. An empty input yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, stddev := meanStdDev(sorted)

	return Summary{
		Mean:   mean,
		StdDev: stddev,
		Median: percentile(sorted, percentileMedian),
		P95:    percentile(sorted, percentileP95),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func meanStdDev(values []float64) (mean, stddev float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}

	mean = sum / float64(len(values))

	var sumSq float64

	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return mean, math.Sqrt(sumSq / float64(len(values)))
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	idx := p * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
