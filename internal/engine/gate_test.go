package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateCooldownSuppressesAndExpires(t *testing.T) {
	g := NewAlertGate(15*time.Minute, 0)

	require.Equal(t, Admitted, g.Admit("BTCUSDT", baseTime))
	require.Equal(t, SuppressedCooldown, g.Admit("BTCUSDT", baseTime.Add(5*time.Minute)))
	require.Equal(t, SuppressedCooldown, g.Admit("BTCUSDT", baseTime.Add(15*time.Minute-time.Second)))

	// An active cooldown is not extended by suppressed confirmations.
	require.Equal(t, Admitted, g.Admit("BTCUSDT", baseTime.Add(15*time.Minute+time.Second)))
}

func TestGateCooldownIsPerSymbol(t *testing.T) {
	g := NewAlertGate(15*time.Minute, 0)

	require.Equal(t, Admitted, g.Admit("BTCUSDT", baseTime))
	require.Equal(t, Admitted, g.Admit("ETHUSDT", baseTime))
}

func TestGateRateCeiling(t *testing.T) {
	g := NewAlertGate(15*time.Minute, 2)

	require.Equal(t, Admitted, g.Admit("AAAUSDT", baseTime))
	require.Equal(t, Admitted, g.Admit("BBBUSDT", baseTime.Add(time.Second)))
	require.Equal(t, SuppressedRate, g.Admit("CCCUSDT", baseTime.Add(2*time.Second)))

	// Rate suppression still stamps the symbol's cooldown.
	last, ok := g.LastAlertAt("CCCUSDT")
	require.True(t, ok)
	require.Equal(t, baseTime.Add(2*time.Second), last)
	require.Equal(t, SuppressedCooldown, g.Admit("CCCUSDT", baseTime.Add(3*time.Second)))

	// The ceiling window slides: a minute later new symbols are admitted.
	require.Equal(t, Admitted, g.Admit("DDDUSDT", baseTime.Add(62*time.Second)))
}

func TestGateRateCeilingDisabled(t *testing.T) {
	g := NewAlertGate(time.Minute, 0)

	for i, sym := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		require.Equal(t, Admitted, g.Admit(sym, baseTime.Add(time.Duration(i)*time.Second)))
	}
}

func TestGateCooldownSnapshotRoundTrip(t *testing.T) {
	g := NewAlertGate(15*time.Minute, 0)
	g.Admit("BTCUSDT", baseTime)
	g.Admit("ETHUSDT", baseTime.Add(time.Minute))

	snap := g.CooldownSnapshot()
	require.Len(t, snap, 2)

	restored := NewAlertGate(15*time.Minute, 0)
	restored.RestoreCooldowns(snap)
	require.Equal(t, SuppressedCooldown, restored.Admit("BTCUSDT", baseTime.Add(10*time.Minute)))
	require.Equal(t, Admitted, restored.Admit("BTCUSDT", baseTime.Add(16*time.Minute)))
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "admitted", Admitted.String())
	require.Equal(t, "suppressed_cooldown", SuppressedCooldown.String())
	require.Equal(t, "suppressed_rate", SuppressedRate.String())
}
