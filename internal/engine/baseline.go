package engine

import (
	"math"
	"sort"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

const iqrFactor = 1.5

// ComputeBaseline derives a robust central-tendency volume estimate from a
// window snapshot. Bucket volumes strictly outside [Q1−1.5·IQR, Q3+1.5·IQR]
// are discarded before taking the median; if the filter discards everything,
// the full set is used instead. Returns ok=false while the snapshot holds
// fewer than minSamples buckets.
func ComputeBaseline(snapshot []models.VolumeBucket, minSamples int) (models.BaselineSnapshot, bool) {
	if len(snapshot) < minSamples {
		return models.BaselineSnapshot{}, false
	}

	volumes := make([]float64, len(snapshot))
	for i, b := range snapshot {
		volumes[i] = b.TotalNotional
	}

	kept := filterOutliers(volumes)
	if len(kept) == 0 {
		kept = volumes
	}

	return models.BaselineSnapshot{
		Symbol:       snapshot[0].Symbol,
		MedianVolume: median(kept),
		SampleCount:  len(kept),
		ComputedAt:   snapshot[len(snapshot)-1].IntervalEnd,
	}, true
}

// filterOutliers applies the IQR rule over the given values.
func filterOutliers(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lo := q1 - iqrFactor*iqr
	hi := q3 + iqrFactor*iqr

	var kept []float64
	for _, v := range sorted {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	return kept
}

// quantile computes the p-quantile of a sorted slice using linear
// interpolation between order statistics.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
