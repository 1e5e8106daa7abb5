package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfirmationFiresOnSecondConsecutiveHit(t *testing.T) {
	c := NewConfirmationTracker(2)

	require.False(t, c.Observe(true, baseTime))
	require.Equal(t, 1, c.Armed())
	require.True(t, c.Observe(true, baseTime.Add(5*time.Minute)))
	require.Equal(t, 0, c.Armed(), "confirmation resets the streak")
}

func TestConfirmationMissResetsStreak(t *testing.T) {
	c := NewConfirmationTracker(2)

	require.False(t, c.Observe(true, baseTime))
	require.False(t, c.Observe(false, baseTime.Add(5*time.Minute)))
	require.Equal(t, 0, c.Armed())

	// The streak must restart from scratch.
	require.False(t, c.Observe(true, baseTime.Add(10*time.Minute)))
	require.True(t, c.Observe(true, baseTime.Add(15*time.Minute)))
}

func TestConfirmationUnbrokenStreakConfirmsOncePerRun(t *testing.T) {
	c := NewConfirmationTracker(2)

	var confirmations int
	for i := 0; i < 6; i++ {
		if c.Observe(true, baseTime.Add(time.Duration(i)*5*time.Minute)) {
			confirmations++
		}
	}
	// Six consecutive hits with a requirement of 2 confirm on intervals 2, 4, and 6.
	require.Equal(t, 3, confirmations)
}

func TestConfirmationSingleIntervalRequirement(t *testing.T) {
	c := NewConfirmationTracker(1)
	require.True(t, c.Observe(true, baseTime))

	clamped := NewConfirmationTracker(0)
	require.True(t, clamped.Observe(true, baseTime), "requirement below 1 is clamped to 1")
}

func TestConfirmationTracksFirstHit(t *testing.T) {
	c := NewConfirmationTracker(3)

	require.True(t, c.FirstHitAt().IsZero())
	c.Observe(true, baseTime)
	require.Equal(t, baseTime, c.FirstHitAt())
	c.Observe(true, baseTime.Add(5*time.Minute))
	require.Equal(t, baseTime, c.FirstHitAt())
	c.Observe(false, baseTime.Add(10*time.Minute))
	require.True(t, c.FirstHitAt().IsZero())
}
