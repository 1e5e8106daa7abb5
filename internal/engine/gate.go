package engine

import (
	"sync"
	"time"
)

// Outcome classifies the alert gate's decision for a confirmed spike.
type Outcome int

const (
	Admitted Outcome = iota
	SuppressedCooldown
	SuppressedRate
)

func (o Outcome) String() string {
	switch o {
	case Admitted:
		return "admitted"
	case SuppressedCooldown:
		return "suppressed_cooldown"
	case SuppressedRate:
		return "suppressed_rate"
	default:
		return "unknown"
	}
}

// AlertGate rate-limits confirmed spikes with a per-symbol cooldown and an
// optional process-wide alerts-per-minute ceiling. It is the only state
// shared across symbol pipelines and is safe for concurrent use.
type AlertGate struct {
	cooldown    time.Duration
	rateCeiling int

	mu        sync.Mutex
	lastAlert map[string]time.Time
	emitted   []time.Time
}

// NewAlertGate creates a gate with the given cooldown and alerts-per-minute
// ceiling. A ceiling of 0 disables the process-wide limit.
func NewAlertGate(cooldown time.Duration, rateCeiling int) *AlertGate {
	return &AlertGate{
		cooldown:    cooldown,
		rateCeiling: rateCeiling,
		lastAlert:   make(map[string]time.Time),
	}
}

// Admit decides whether a confirmed spike for symbol becomes an alert at now.
// An active cooldown suppresses without being extended. A rate-ceiling
// suppression still stamps the per-symbol cooldown so the symbol does not
// retry on every subsequent confirmation.
func (g *AlertGate) Admit(symbol string, now time.Time) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.lastAlert[symbol]; ok && now.Sub(last) < g.cooldown {
		return SuppressedCooldown
	}

	if g.rateCeiling > 0 {
		g.pruneEmitted(now)
		if len(g.emitted) >= g.rateCeiling {
			g.lastAlert[symbol] = now
			return SuppressedRate
		}
		g.emitted = append(g.emitted, now)
	}

	g.lastAlert[symbol] = now
	return Admitted
}

func (g *AlertGate) pruneEmitted(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(g.emitted) && !g.emitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.emitted = append(g.emitted[:0], g.emitted[i:]...)
	}
}

// LastAlertAt returns the symbol's cooldown anchor, if set.
func (g *AlertGate) LastAlertAt(symbol string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.lastAlert[symbol]
	return t, ok
}

// CooldownSnapshot returns a copy of all per-symbol cooldown anchors.
func (g *AlertGate) CooldownSnapshot() map[string]time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]time.Time, len(g.lastAlert))
	for sym, t := range g.lastAlert {
		out[sym] = t
	}
	return out
}

// RestoreCooldowns seeds the per-symbol cooldown anchors, typically from a
// persisted checkpoint at startup.
func (g *AlertGate) RestoreCooldowns(cooldowns map[string]time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for sym, t := range cooldowns {
		g.lastAlert[sym] = t
	}
}
