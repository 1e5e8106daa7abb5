package engine

import (
	"time"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// HistoryWindow holds the sealed buckets of one symbol, oldest first, spanning
// at most the configured lookback. Buckets are contiguous on the time axis:
// gaps supplied by the caller are filled with zero-volume placeholders.
type HistoryWindow struct {
	interval   time.Duration
	lookback   time.Duration
	minSamples int
	buckets    []models.VolumeBucket
}

// NewHistoryWindow creates a window covering lookback at the given interval.
func NewHistoryWindow(interval, lookback time.Duration, minSamples int) *HistoryWindow {
	return &HistoryWindow{
		interval:   interval,
		lookback:   lookback,
		minSamples: minSamples,
	}
}

// Append adds a sealed bucket, filling any gap since the previous bucket with
// zero-volume placeholders, then evicts buckets older than the lookback.
func (w *HistoryWindow) Append(b models.VolumeBucket) {
	if n := len(w.buckets); n > 0 {
		for cursor := w.buckets[n-1].IntervalEnd; cursor.Before(b.IntervalStart); cursor = cursor.Add(w.interval) {
			w.buckets = append(w.buckets, models.VolumeBucket{
				Symbol:        b.Symbol,
				IntervalStart: cursor,
				IntervalEnd:   cursor.Add(w.interval),
			})
		}
	}
	w.buckets = append(w.buckets, b)
	w.evict(b.IntervalEnd)
}

func (w *HistoryWindow) evict(newest time.Time) {
	cutoff := newest.Add(-w.lookback)
	i := 0
	for i < len(w.buckets) && w.buckets[i].IntervalStart.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.buckets = append(w.buckets[:0], w.buckets[i:]...)
	}
}

// Ready reports whether enough history accumulated for baseline estimation.
func (w *HistoryWindow) Ready() bool {
	return len(w.buckets) >= w.minSamples
}

// Len returns the number of buckets currently held.
func (w *HistoryWindow) Len() int {
	return len(w.buckets)
}

// Snapshot returns a copy of the held buckets, oldest first.
func (w *HistoryWindow) Snapshot() []models.VolumeBucket {
	out := make([]models.VolumeBucket, len(w.buckets))
	copy(out, w.buckets)
	return out
}
