package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func trade(sym string, at time.Time, notional float64) models.TradeEvent {
	return models.TradeEvent{Symbol: sym, Timestamp: at, Notional: notional}
}

func TestAggregatorAccumulatesWithinInterval(t *testing.T) {
	agg := NewAggregator("BTCUSDT", 5*time.Minute)

	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime, 100)))
	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime.Add(time.Minute), 200)))
	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime.Add(4*time.Minute), 50)))

	open, ok := agg.OpenBucket()
	require.True(t, ok)
	require.Equal(t, 350.0, open.TotalNotional)
	require.Equal(t, baseTime, open.IntervalStart)
	require.Equal(t, baseTime.Add(5*time.Minute), open.IntervalEnd)
}

func TestAggregatorSealsOnIntervalBoundary(t *testing.T) {
	agg := NewAggregator("BTCUSDT", 5*time.Minute)

	agg.Ingest(trade("BTCUSDT", baseTime, 100))
	sealed := agg.Ingest(trade("BTCUSDT", baseTime.Add(5*time.Minute), 40))

	require.Len(t, sealed, 1)
	require.Equal(t, 100.0, sealed[0].TotalNotional)
	require.Equal(t, baseTime, sealed[0].IntervalStart)

	open, ok := agg.OpenBucket()
	require.True(t, ok)
	require.Equal(t, 40.0, open.TotalNotional)
	require.Equal(t, baseTime.Add(5*time.Minute), open.IntervalStart)
}

func TestAggregatorMaterializesZeroVolumeGaps(t *testing.T) {
	agg := NewAggregator("BTCUSDT", 5*time.Minute)

	agg.Ingest(trade("BTCUSDT", baseTime, 100))
	// Next trade arrives three intervals later: the open bucket seals and
	// two empty intervals are materialized.
	sealed := agg.Ingest(trade("BTCUSDT", baseTime.Add(15*time.Minute), 70))

	require.Len(t, sealed, 3)
	require.Equal(t, 100.0, sealed[0].TotalNotional)
	require.Equal(t, 0.0, sealed[1].TotalNotional)
	require.Equal(t, 0.0, sealed[2].TotalNotional)

	// Contiguous time axis.
	require.Equal(t, sealed[0].IntervalEnd, sealed[1].IntervalStart)
	require.Equal(t, sealed[1].IntervalEnd, sealed[2].IntervalStart)

	open, _ := agg.OpenBucket()
	require.Equal(t, sealed[2].IntervalEnd, open.IntervalStart)
}

func TestAggregatorIgnoresLateTradesForSealedIntervals(t *testing.T) {
	agg := NewAggregator("BTCUSDT", 5*time.Minute)

	agg.Ingest(trade("BTCUSDT", baseTime, 100))
	agg.Ingest(trade("BTCUSDT", baseTime.Add(5*time.Minute), 40))

	// Interval [baseTime, baseTime+5m) already sealed.
	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime.Add(2*time.Minute), 999)))

	open, _ := agg.OpenBucket()
	require.Equal(t, 40.0, open.TotalNotional)
}

func TestAggregatorAcceptsOutOfOrderTradesInOpenInterval(t *testing.T) {
	agg := NewAggregator("BTCUSDT", 5*time.Minute)

	agg.Ingest(trade("BTCUSDT", baseTime.Add(3*time.Minute), 100))
	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime.Add(time.Minute), 50)))

	open, _ := agg.OpenBucket()
	require.Equal(t, 150.0, open.TotalNotional)
}

func TestAggregatorRejectsInvalidNotional(t *testing.T) {
	agg := NewAggregator("BTCUSDT", 5*time.Minute)
	agg.Ingest(trade("BTCUSDT", baseTime, 100))

	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime, -5)))
	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime, math.NaN())))
	require.Empty(t, agg.Ingest(trade("BTCUSDT", baseTime, math.Inf(1))))

	open, _ := agg.OpenBucket()
	require.Equal(t, 100.0, open.TotalNotional)
}
