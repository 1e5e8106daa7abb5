package models

import "time"

// BaselineSnapshot is the robust volume baseline derived from a symbol's
// history window. Recomputed on every sealed bucket; only the latest value
// per symbol is meaningful.
type BaselineSnapshot struct {
	Symbol       string
	MedianVolume float64
	SampleCount  int
	ComputedAt   time.Time
}

// AlertEvent is the terminal artifact of a confirmed, admitted volume spike.
type AlertEvent struct {
	Symbol         string
	CurrentVolume  float64
	BaselineVolume float64
	SpikeRatio     float64
	ConfirmedAt    time.Time
}
