package engine

import "time"

// ConfirmationTracker promotes raw spike hits to confirmed spikes once they
// persist across the required number of consecutive intervals.
//
// States: idle (no streak) and armed(n) for n consecutive hits below the
// requirement. Reaching the requirement fires exactly once and returns the
// tracker to idle, so an unbroken high-volume streak needs a fresh run of
// consecutive hits before it can confirm again.
type ConfirmationTracker struct {
	required int
	hits     int
	firstHit time.Time
}

// NewConfirmationTracker creates a tracker requiring the given number of
// consecutive raw hits. Values below 1 are clamped to 1.
func NewConfirmationTracker(required int) *ConfirmationTracker {
	if required < 1 {
		required = 1
	}
	return &ConfirmationTracker{required: required}
}

// Observe feeds the raw classification outcome for one sealed interval and
// reports whether this interval confirmed a spike. A miss resets the streak
// regardless of prior state.
func (c *ConfirmationTracker) Observe(hit bool, at time.Time) bool {
	if !hit {
		c.reset()
		return false
	}
	if c.hits == 0 {
		c.firstHit = at
	}
	c.hits++
	if c.hits >= c.required {
		c.reset()
		return true
	}
	return false
}

// Armed returns the current count of consecutive raw hits.
func (c *ConfirmationTracker) Armed() int {
	return c.hits
}

// FirstHitAt returns the interval end of the first hit in the current streak,
// or the zero time when idle.
func (c *ConfirmationTracker) FirstHitAt() time.Time {
	return c.firstHit
}

func (c *ConfirmationTracker) reset() {
	c.hits = 0
	c.firstHit = time.Time{}
}
