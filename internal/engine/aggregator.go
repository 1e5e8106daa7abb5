// Package engine implements the volume spike detection pipeline: trade
// aggregation into fixed intervals, rolling history, outlier-resistant
// baselines, spike classification, multi-interval confirmation, and the
// cooldown/rate alert gate.
package engine

import (
	"math"
	"time"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// Aggregator folds raw trades of a single symbol into fixed-length
// notional-volume buckets. A bucket stays open until a trade from a later
// interval arrives, at which point it is sealed and handed off.
type Aggregator struct {
	symbol   string
	interval time.Duration
	open     *models.VolumeBucket
}

// NewAggregator creates an aggregator for one symbol.
func NewAggregator(symbol string, interval time.Duration) *Aggregator {
	return &Aggregator{symbol: symbol, interval: interval}
}

// Ingest folds one trade into the open bucket and returns the buckets sealed
// by it, oldest first. A trade in a later interval seals the open bucket and
// materializes zero-volume buckets for any empty intervals in between, so the
// time axis stays contiguous. Trades for already-sealed intervals are
// dropped; trades with non-finite or negative notional never mutate state.
func (a *Aggregator) Ingest(ev models.TradeEvent) []models.VolumeBucket {
	if math.IsNaN(ev.Notional) || math.IsInf(ev.Notional, 0) || ev.Notional < 0 {
		return nil
	}

	start := ev.Timestamp.Truncate(a.interval)
	if a.open == nil {
		a.open = a.newBucket(start, ev.Notional)
		return nil
	}

	switch {
	case start.Equal(a.open.IntervalStart):
		// In-interval trade, including out-of-order deliveries.
		a.open.TotalNotional += ev.Notional
		return nil
	case start.Before(a.open.IntervalStart):
		// Late trade for an interval that already sealed.
		return nil
	}

	sealed := []models.VolumeBucket{*a.open}
	for cursor := a.open.IntervalEnd; cursor.Before(start); cursor = cursor.Add(a.interval) {
		sealed = append(sealed, models.VolumeBucket{
			Symbol:        a.symbol,
			IntervalStart: cursor,
			IntervalEnd:   cursor.Add(a.interval),
		})
	}
	a.open = a.newBucket(start, ev.Notional)
	return sealed
}

// OpenBucket returns a copy of the currently open bucket, if any.
func (a *Aggregator) OpenBucket() (models.VolumeBucket, bool) {
	if a.open == nil {
		return models.VolumeBucket{}, false
	}
	return *a.open, true
}

func (a *Aggregator) newBucket(start time.Time, notional float64) *models.VolumeBucket {
	return &models.VolumeBucket{
		Symbol:        a.symbol,
		IntervalStart: start,
		IntervalEnd:   start.Add(a.interval),
		TotalNotional: notional,
	}
}
