package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

func snapshotOf(volumes ...float64) []models.VolumeBucket {
	buckets := make([]models.VolumeBucket, len(volumes))
	for i, v := range volumes {
		start := baseTime.Add(time.Duration(i) * 5 * time.Minute)
		buckets[i] = models.VolumeBucket{
			Symbol:        "BTCUSDT",
			IntervalStart: start,
			IntervalEnd:   start.Add(5 * time.Minute),
			TotalNotional: v,
		}
	}
	return buckets
}

func TestBaselineDiscardsIQROutliers(t *testing.T) {
	baseline, ok := ComputeBaseline(snapshotOf(10, 10, 10, 10, 10, 100), 6)

	require.True(t, ok)
	require.Equal(t, 10.0, baseline.MedianVolume)
	require.Equal(t, 5, baseline.SampleCount)
}

func TestBaselineNotReadyBelowMinSamples(t *testing.T) {
	_, ok := ComputeBaseline(snapshotOf(10, 10, 10), 6)
	require.False(t, ok)
}

func TestBaselineIsDeterministic(t *testing.T) {
	volumes := []float64{120, 80, 95, 300, 110, 90, 105, 98, 87, 115, 102, 99}

	first, ok := ComputeBaseline(snapshotOf(volumes...), 6)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		again, ok := ComputeBaseline(snapshotOf(volumes...), 6)
		require.True(t, ok)
		require.Equal(t, first, again)
	}
}

func TestBaselineUniformWindow(t *testing.T) {
	baseline, ok := ComputeBaseline(snapshotOf(100, 100, 100, 100, 100, 100), 6)

	require.True(t, ok)
	require.Equal(t, 100.0, baseline.MedianVolume)
	require.Equal(t, 6, baseline.SampleCount)
}

func TestBaselineMedianOfEvenCount(t *testing.T) {
	baseline, ok := ComputeBaseline(snapshotOf(10, 20, 30, 40, 50, 60), 6)

	require.True(t, ok)
	require.Equal(t, 35.0, baseline.MedianVolume)
}

func TestBaselineMetadata(t *testing.T) {
	snap := snapshotOf(10, 10, 10, 10, 10, 10)
	baseline, ok := ComputeBaseline(snap, 6)

	require.True(t, ok)
	require.Equal(t, "BTCUSDT", baseline.Symbol)
	require.Equal(t, snap[len(snap)-1].IntervalEnd, baseline.ComputedAt)
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{10, 10, 10, 10, 10, 100}

	require.Equal(t, 10.0, quantile(sorted, 0.25))
	// Q3 sits between index 3 and 4: 10 + 0.75*(10-10).
	require.Equal(t, 10.0, quantile(sorted, 0.75))

	require.Equal(t, 2.5, quantile([]float64{1, 2, 3, 4}, 0.5))
	require.Equal(t, 1.75, quantile([]float64{1, 2, 3, 4}, 0.25))
}

func TestMedian(t *testing.T) {
	require.Equal(t, 0.0, median(nil))
	require.Equal(t, 5.0, median([]float64{5}))
	require.Equal(t, 2.0, median([]float64{3, 1, 2}))
	require.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}
