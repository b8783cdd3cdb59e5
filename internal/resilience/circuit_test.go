package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	b := NewBreaker("stripe", 4, 0.5, time.Minute)

	b.Report(true)
	b.Report(false)
	b.Report(false)
	require.Equal(t, Closed, b.CurrentState())

	b.Report(false)
	require.Equal(t, Open, b.CurrentState())
	require.False(t, b.Allow())
}

func TestBreakerHalfOpenProbeRecovers(t *testing.T) {
	now := time.Now()
	b := NewBreaker("square", 1, 0.5, time.Minute).WithNow(func() time.Time { return now })

	b.Report(false)
	require.Equal(t, Open, b.CurrentState())

	now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())
	require.Equal(t, HalfOpen, b.CurrentState())

	b.Report(true)
	require.Equal(t, Closed, b.CurrentState())
	require.True(t, b.Allow())
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("shipstation", 1, 0.5, time.Minute).WithNow(func() time.Time { return now })

	b.Report(false)
	now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())

	b.Report(false)
	require.Equal(t, Open, b.CurrentState())
	require.False(t, b.Allow())
}

func TestBackoffGrowsExponentially(t *testing.T) {
	require.Equal(t, 100*time.Millisecond, Backoff(100*time.Millisecond, 1, 0))
	require.Equal(t, 200*time.Millisecond, Backoff(100*time.Millisecond, 2, 0))
	require.Equal(t, 400*time.Millisecond, Backoff(100*time.Millisecond, 3, 0))

	jittered := Backoff(100*time.Millisecond, 2, 0.2)
	require.GreaterOrEqual(t, jittered, 160*time.Millisecond)
	require.LessOrEqual(t, jittered, 240*time.Millisecond)
}
