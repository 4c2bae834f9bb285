package infra

import (
	"sync"
	"testing"
	"time"

	"tracker-gateway/middleware/governance/domain"

	"github.com/stretchr/testify/require"
)

const testClass = domain.Class("test-class")

func newTestStore(p domain.Profile, global domain.Profile, clock domain.Clock) *Store {
	return NewStore(
		map[domain.Class]domain.Profile{testClass: p},
		global,
		WithStoreClock(clock),
		WithCleanupEvery(0),
	)
}

func TestStore_FullBucketAdmitsCapacityThenDenies(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(domain.Profile{Capacity: 5, RefillPerSec: 0.05}, domain.Profile{Capacity: 1000, RefillPerSec: 10}, clock)

	for i := 0; i < 5; i++ {
		dec := s.Admit(testClass, "10.0.0.1")
		require.True(t, dec.Allowed, "admit %d should pass on a full bucket", i+1)
	}

	dec := s.Admit(testClass, "10.0.0.1")
	require.False(t, dec.Allowed)
	require.InDelta(t, 20.0, dec.RetryAfter.Seconds(), 0.01, "retry hint should be 1/refill")

	// After waiting out the hint one token is back.
	clock.Advance(dec.RetryAfter)
	require.True(t, s.Admit(testClass, "10.0.0.1").Allowed)
	require.False(t, s.Admit(testClass, "10.0.0.1").Allowed, "only one token refilled")
}

func TestStore_DenialConsumesNoTokens(t *testing.T) {
	clock := newFakeClock()
	// Scope capacity 1 makes any hidden consumption observable.
	s := newTestStore(domain.Profile{Capacity: 1, RefillPerSec: 0.001}, domain.Profile{Capacity: 2, RefillPerSec: 1}, clock)

	require.True(t, s.Admit(testClass, "k1").Allowed)

	// Scope-denied: k1's bucket is empty, but the global bucket must keep
	// its remaining token.
	require.False(t, s.Admit(testClass, "k1").Allowed)
	require.False(t, s.Admit(testClass, "k1").Allowed)
	require.True(t, s.Admit(testClass, "k2").Allowed, "scope denials must not drain the global bucket")
}

func TestStore_GlobalDenialRefundsScopeToken(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(domain.Profile{Capacity: 1, RefillPerSec: 0.001}, domain.Profile{Capacity: 1, RefillPerSec: 1}, clock)

	require.True(t, s.Admit(testClass, "k1").Allowed, "consumes the only global token")

	dec := s.Admit(testClass, "k2")
	require.False(t, dec.Allowed, "global bucket exhausted")
	require.InDelta(t, 1.0, dec.RetryAfter.Seconds(), 0.01)

	// One global token refills in 1s. k2's scope bucket holds a single
	// token and refills at 0.001/s, so this admit only passes if the
	// denial above left the scope token in place.
	clock.Advance(time.Second)
	require.True(t, s.Admit(testClass, "k2").Allowed)
}

func TestStore_BurstOverCapacityDeniesWithRefillDeficitHint(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(domain.Profile{Capacity: 30, RefillPerSec: 0.5}, domain.Profile{Capacity: 1000, RefillPerSec: 10}, clock)

	for i := 0; i < 30; i++ {
		require.True(t, s.Admit(testClass, "reader").Allowed, "admit %d", i+1)
	}
	// Requests 31-35: denied, and since denials consume nothing the
	// deficit stays one token, i.e. a steady 2s hint at 0.5 tokens/s.
	for i := 0; i < 5; i++ {
		dec := s.Admit(testClass, "reader")
		require.False(t, dec.Allowed, "request %d must be denied", 31+i)
		require.InDelta(t, 2.0, dec.RetryAfter.Seconds(), 0.01)
	}
}

func TestStore_ScopesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(
		map[domain.Class]domain.Profile{
			"writes": {Capacity: 1, RefillPerSec: 0.05},
			"reads":  {Capacity: 1, RefillPerSec: 0.5},
		},
		domain.Profile{Capacity: 1000, RefillPerSec: 10},
		WithStoreClock(clock),
		WithCleanupEvery(0),
	)

	require.True(t, s.Admit("writes", "10.0.0.1").Allowed)
	require.False(t, s.Admit("writes", "10.0.0.1").Allowed)

	// Same identity, different class: separate bucket.
	require.True(t, s.Admit("reads", "10.0.0.1").Allowed)
	// Same class, different identity: separate bucket.
	require.True(t, s.Admit("writes", "10.0.0.2").Allowed)
}

func TestStore_UnknownClassUsesFallbackProfile(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(domain.Profile{Capacity: 1, RefillPerSec: 1}, domain.Profile{Capacity: 1000, RefillPerSec: 10}, clock)

	for i := 0; i < 10; i++ {
		require.True(t, s.Admit("unlisted", "k").Allowed)
	}
	dec := s.Admit("unlisted", "k")
	require.False(t, dec.Allowed)
	require.InDelta(t, 10.0, dec.RetryAfter.Seconds(), 0.01)
}

func TestStore_ConcurrentAdmitsNeverExceedCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(domain.Profile{Capacity: 50, RefillPerSec: 0.1}, domain.Profile{Capacity: 1000, RefillPerSec: 10}, clock)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Admit(testClass, "hot").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 50, allowed, "no double-admits beyond capacity, no lost decrements")
}

func TestStore_CleanupRemovesIdleBuckets(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(
		map[domain.Class]domain.Profile{testClass: {Capacity: 1, RefillPerSec: 0.001}},
		domain.Profile{Capacity: 1000, RefillPerSec: 10},
		WithStoreClock(clock),
		WithIdleTTL(time.Minute),
		WithCleanupEvery(0),
	)

	require.True(t, s.Admit(testClass, "k").Allowed)
	require.False(t, s.Admit(testClass, "k").Allowed)

	clock.Advance(2 * time.Minute)
	s.Cleanup()

	// Recreated at full capacity; at 0.001/s two minutes of refill alone
	// would not produce a token.
	require.True(t, s.Admit(testClass, "k").Allowed)
}
