package infra

import (
	"testing"
	"time"

	"tracker-gateway/middleware/governance/domain"

	"github.com/stretchr/testify/require"
)

func newTestBreaker(clock domain.Clock) *Breaker {
	return NewBreaker(10, 60*time.Second, 300*time.Second, WithBreakerClock(clock))
}

func failTimes(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.True(t, b.Allow(), "attempt %d while closed", i+1)
		b.Record(false)
	}
}

func TestBreaker_OpensAfterThresholdFailuresWithinWindow(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)

	failTimes(t, b, 9)
	require.Equal(t, domain.BreakerClosed, b.State())

	require.True(t, b.Allow())
	b.Record(false)

	require.Equal(t, domain.BreakerOpen, b.State())
	require.False(t, b.Allow(), "open breaker rejects without attempting the boundary")
}

func TestBreaker_WindowRolloverForgetsStaleFailures(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)

	failTimes(t, b, 9)
	clock.Advance(61 * time.Second)

	// The stale failures no longer count toward the threshold.
	failTimes(t, b, 1)
	require.Equal(t, domain.BreakerClosed, b.State())
	require.Equal(t, 1, b.Failures())
}

func TestBreaker_CooldownAdmitsExactlyOneTrial(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	failTimes(t, b, 10)

	clock.Advance(299 * time.Second)
	require.False(t, b.Allow(), "still cooling down")

	clock.Advance(time.Second)
	require.True(t, b.Allow(), "first post-cooldown attempt is the trial")
	require.False(t, b.Allow(), "only one trial in flight")
}

func TestBreaker_SuccessfulTrialCloses(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	failTimes(t, b, 10)
	clock.Advance(300 * time.Second)

	require.True(t, b.Allow())
	b.Record(true)

	require.Equal(t, domain.BreakerClosed, b.State())
	require.Equal(t, 0, b.Failures())
	require.True(t, b.Allow())
}

func TestBreaker_FailedTrialReopensWithFreshCooldown(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	failTimes(t, b, 10)
	clock.Advance(300 * time.Second)

	require.True(t, b.Allow())
	b.Record(false)
	require.Equal(t, domain.BreakerOpen, b.State())

	clock.Advance(299 * time.Second)
	require.False(t, b.Allow(), "cooldown restarts at the failed trial")
	clock.Advance(time.Second)
	require.True(t, b.Allow())
}

func TestBreaker_CancelReleasesTrialWithoutOutcome(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	failTimes(t, b, 10)
	clock.Advance(300 * time.Second)

	// The admitted trial never reaches the boundary and is cancelled.
	require.True(t, b.Allow())
	b.Cancel()

	require.Equal(t, domain.BreakerHalfOpen, b.State(), "cancellation must not close the circuit")
	require.True(t, b.Allow(), "the trial slot is free again")
	b.Record(true)
	require.Equal(t, domain.BreakerClosed, b.State())
}

func TestBreaker_CancelWhileClosedIsANoOp(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	failTimes(t, b, 5)

	b.Cancel()
	require.Equal(t, domain.BreakerClosed, b.State())
	require.Equal(t, 5, b.Failures())
}

func TestBreaker_StateSurfacesHalfOpenWithoutAdmitting(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	failTimes(t, b, 10)
	clock.Advance(300 * time.Second)

	require.Equal(t, domain.BreakerHalfOpen, b.State())
	// Peeking at the state must not consume the trial slot.
	require.True(t, b.Allow())
}
