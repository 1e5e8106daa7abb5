// Package models defines the core domain entities: trade events, volume
// buckets, baseline snapshots, and alerts.
package models

import (
	"errors"
	"math"
	"time"
)

// TradeEvent is a single executed trade as delivered by the market-data feed.
// Notional is the quote-currency volume of the trade (price × quantity).
type TradeEvent struct {
	Symbol    string
	Timestamp time.Time
	Notional  float64
}

// Validate checks trade event field constraints.
func (t *TradeEvent) Validate() error {
	if t.Symbol == "" {
		return errors.New("trade symbol must not be empty")
	}
	if t.Timestamp.IsZero() {
		return errors.New("trade timestamp must be set")
	}
	if math.IsNaN(t.Notional) || math.IsInf(t.Notional, 0) {
		return errors.New("trade notional must be finite")
	}
	if t.Notional < 0 {
		return errors.New("trade notional must not be negative")
	}
	return nil
}

// VolumeBucket accumulates the notional volume of one symbol over one fixed
// interval [IntervalStart, IntervalEnd). A bucket is mutable while open and
// becomes immutable once sealed and handed to the history window.
type VolumeBucket struct {
	Symbol        string
	IntervalStart time.Time
	IntervalEnd   time.Time
	TotalNotional float64
}
