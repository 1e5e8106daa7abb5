package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/logger"
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// Config holds the detection parameters.
type Config struct {
	Interval              time.Duration
	BaselineWindow        time.Duration
	MinSamples            int
	SpikeRatioThreshold   float64
	MinVolumeThreshold    float64
	ConfirmationIntervals int
	CooldownPeriod        time.Duration
	GlobalRateCeiling     int
}

func DefaultConfig() Config {
	return Config{
		Interval:              5 * time.Minute,
		BaselineWindow:        time.Hour,
		MinSamples:            6,
		SpikeRatioThreshold:   3.0,
		MinVolumeThreshold:    1_000_000,
		ConfirmationIntervals: 2,
		CooldownPeriod:        15 * time.Minute,
		GlobalRateCeiling:     0,
	}
}

// Stats are cumulative processing counters.
type Stats struct {
	TradesProcessed    uint64
	TradesRejected     uint64
	BucketsSealed      uint64
	AlertsEmitted      uint64
	SuppressedCooldown uint64
	SuppressedRate     uint64
	Symbols            int
}

type symbolState struct {
	mu      sync.Mutex
	agg     *Aggregator
	window  *HistoryWindow
	tracker *ConfirmationTracker
}

// Engine owns all per-symbol detection state and runs the full pipeline
// (aggregate → seal → baseline → classify → confirm → gate) for each incoming
// trade. Safe for concurrent use: sealed-bucket evaluations for the same
// symbol never interleave, and the only cross-symbol state is the gate's
// rate ceiling.
type Engine struct {
	cfg  Config
	gate *AlertGate

	mu     sync.RWMutex
	states map[string]*symbolState

	tradesProcessed    atomic.Uint64
	tradesRejected     atomic.Uint64
	bucketsSealed      atomic.Uint64
	alertsEmitted      atomic.Uint64
	suppressedCooldown atomic.Uint64
	suppressedRate     atomic.Uint64
}

// New creates an engine with the given detection parameters.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		gate:   NewAlertGate(cfg.CooldownPeriod, cfg.GlobalRateCeiling),
		states: make(map[string]*symbolState),
	}
}

// Process folds one trade into its symbol's state and returns any alerts
// admitted as a result. Malformed trades are rejected without mutating state.
func (e *Engine) Process(ev models.TradeEvent) []models.AlertEvent {
	if err := ev.Validate(); err != nil {
		e.tradesRejected.Add(1)
		logger.Debug("Rejected trade for %q: %v", ev.Symbol, err)
		return nil
	}

	st := e.state(ev.Symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	e.tradesProcessed.Add(1)

	var alerts []models.AlertEvent
	for _, bucket := range st.agg.Ingest(ev) {
		e.bucketsSealed.Add(1)
		if alert, ok := e.evaluate(st, bucket); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// evaluate runs the detection pipeline for one sealed bucket. The bucket's
// interval end serves as the evaluation clock for classification,
// confirmation, and cooldown arithmetic, keeping the pipeline deterministic.
func (e *Engine) evaluate(st *symbolState, bucket models.VolumeBucket) (models.AlertEvent, bool) {
	st.window.Append(bucket)

	baseline, ok := ComputeBaseline(st.window.Snapshot(), e.cfg.MinSamples)
	if !ok {
		// Not enough history yet: no signal for this interval.
		st.tracker.Observe(false, bucket.IntervalEnd)
		return models.AlertEvent{}, false
	}

	ratio, hit := Classify(bucket, baseline, e.cfg.SpikeRatioThreshold, e.cfg.MinVolumeThreshold)
	if hit {
		logger.Debug("Raw spike hit %s: volume=%.0f baseline=%.0f ratio=%.2f streak=%d",
			bucket.Symbol, bucket.TotalNotional, baseline.MedianVolume, ratio, st.tracker.Armed()+1)
	}

	if !st.tracker.Observe(hit, bucket.IntervalEnd) {
		return models.AlertEvent{}, false
	}

	switch outcome := e.gate.Admit(bucket.Symbol, bucket.IntervalEnd); outcome {
	case SuppressedCooldown:
		e.suppressedCooldown.Add(1)
		logger.Debug("Confirmed spike for %s suppressed: %s", bucket.Symbol, outcome)
		return models.AlertEvent{}, false
	case SuppressedRate:
		e.suppressedRate.Add(1)
		logger.Warn("Confirmed spike for %s suppressed: %s", bucket.Symbol, outcome)
		return models.AlertEvent{}, false
	}

	e.alertsEmitted.Add(1)
	return models.AlertEvent{
		Symbol:         bucket.Symbol,
		CurrentVolume:  bucket.TotalNotional,
		BaselineVolume: baseline.MedianVolume,
		SpikeRatio:     ratio,
		ConfirmedAt:    bucket.IntervalEnd,
	}, true
}

func (e *Engine) state(symbol string) *symbolState {
	e.mu.RLock()
	st, ok := e.states[symbol]
	e.mu.RUnlock()
	if ok {
		return st
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok = e.states[symbol]; ok {
		return st
	}
	st = &symbolState{
		agg:     NewAggregator(symbol, e.cfg.Interval),
		window:  NewHistoryWindow(e.cfg.Interval, e.cfg.BaselineWindow, e.cfg.MinSamples),
		tracker: NewConfirmationTracker(e.cfg.ConfirmationIntervals),
	}
	e.states[symbol] = st
	return st
}

// RestoreCooldowns seeds the gate's per-symbol cooldown anchors from a
// persisted checkpoint.
func (e *Engine) RestoreCooldowns(cooldowns map[string]time.Time) {
	e.gate.RestoreCooldowns(cooldowns)
}

// CooldownSnapshot returns the gate's per-symbol cooldown anchors for
// checkpointing.
func (e *Engine) CooldownSnapshot() map[string]time.Time {
	return e.gate.CooldownSnapshot()
}

// Stats returns a snapshot of the cumulative processing counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	symbols := len(e.states)
	e.mu.RUnlock()

	return Stats{
		TradesProcessed:    e.tradesProcessed.Load(),
		TradesRejected:     e.tradesRejected.Load(),
		BucketsSealed:      e.bucketsSealed.Load(),
		AlertsEmitted:      e.alertsEmitted.Load(),
		SuppressedCooldown: e.suppressedCooldown.Load(),
		SuppressedRate:     e.suppressedRate.Load(),
		Symbols:            symbols,
	}
}
