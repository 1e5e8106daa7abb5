package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

func bucketAt(at time.Time, volume float64) models.VolumeBucket {
	return models.VolumeBucket{
		Symbol:        "BTCUSDT",
		IntervalStart: at,
		IntervalEnd:   at.Add(5 * time.Minute),
		TotalNotional: volume,
	}
}

func TestWindowAppendAndReady(t *testing.T) {
	w := NewHistoryWindow(5*time.Minute, time.Hour, 6)

	for i := 0; i < 5; i++ {
		w.Append(bucketAt(baseTime.Add(time.Duration(i)*5*time.Minute), 100))
		require.False(t, w.Ready(), "window must not be ready with %d buckets", w.Len())
	}

	w.Append(bucketAt(baseTime.Add(25*time.Minute), 100))
	require.True(t, w.Ready())
	require.Equal(t, 6, w.Len())
}

func TestWindowEvictsBeyondLookback(t *testing.T) {
	w := NewHistoryWindow(5*time.Minute, time.Hour, 6)

	// 15 contiguous buckets; only the newest 12 fit a 60-minute lookback.
	for i := 0; i < 15; i++ {
		w.Append(bucketAt(baseTime.Add(time.Duration(i)*5*time.Minute), float64(i)))
	}

	snap := w.Snapshot()
	require.Len(t, snap, 12)
	require.Equal(t, 3.0, snap[0].TotalNotional)
	require.Equal(t, 14.0, snap[11].TotalNotional)
}

func TestWindowFillsGapsWithZeroBuckets(t *testing.T) {
	w := NewHistoryWindow(5*time.Minute, time.Hour, 6)

	w.Append(bucketAt(baseTime, 100))
	w.Append(bucketAt(baseTime.Add(15*time.Minute), 200))

	snap := w.Snapshot()
	require.Len(t, snap, 4)
	require.Equal(t, 0.0, snap[1].TotalNotional)
	require.Equal(t, 0.0, snap[2].TotalNotional)
	for i := 1; i < len(snap); i++ {
		require.Equal(t, snap[i-1].IntervalEnd, snap[i].IntervalStart, "window must stay contiguous")
	}
}

func TestWindowSnapshotIsACopy(t *testing.T) {
	w := NewHistoryWindow(5*time.Minute, time.Hour, 6)
	w.Append(bucketAt(baseTime, 100))

	snap := w.Snapshot()
	snap[0].TotalNotional = 999

	require.Equal(t, 100.0, w.Snapshot()[0].TotalNotional)
}
