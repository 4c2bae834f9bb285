package infra

import (
	"context"
	"sync"
	"time"

	"tracker-gateway/middleware/governance/domain"

	"golang.org/x/time/rate"
)

// Store implements domain.Limiter with token buckets (x/time/rate), one per
// (class, identity) scope plus a single global bucket, created lazily and
// cleaned up periodically when idle.
//
// Admission checks the scope bucket first, then the global bucket. A denial
// on either side consumes no token anywhere: the scope reservation is
// cancelled when the global bucket denies. Every reservation is made with
// an explicit clock time, so refill is a pure function of elapsed time.
type Store struct {
	mu       sync.Mutex
	clock    domain.Clock
	profiles map[domain.Class]domain.Profile
	fallback domain.Profile
	entries  map[string]*scopeEntry
	global   *scopeEntry

	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type scopeEntry struct {
	mu       sync.Mutex
	lim      *rate.Limiter
	lastSeen time.Time
}

type StoreOption func(*Store)

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func WithStoreClock(c domain.Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// WithFallbackProfile sets the profile used for classes absent from the
// profile table.
func WithFallbackProfile(p domain.Profile) StoreOption {
	return func(s *Store) { s.fallback = p }
}

// NewStore builds a store from a per-class profile table and the global
// profile shared by all classes.
//
// The idle TTL must exceed the slowest profile's full refill time
// (capacity/refill); otherwise dropping and recreating an idle bucket could
// hand out tokens faster than refill would.
func NewStore(profiles map[domain.Class]domain.Profile, global domain.Profile, opts ...StoreOption) *Store {
	s := &Store{
		clock:        SystemClock{},
		profiles:     profiles,
		fallback:     domain.Profile{Capacity: 10, RefillPerSec: 0.1},
		entries:      make(map[string]*scopeEntry),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.global = &scopeEntry{lim: newBucket(global)}
	return s
}

func newBucket(p domain.Profile) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(p.RefillPerSec), p.Capacity)
}

func (s *Store) CleanupEvery() time.Duration { return s.cleanupEvery }

// Profile returns the profile that governs a class.
func (s *Store) Profile(class domain.Class) domain.Profile {
	if p, ok := s.profiles[class]; ok {
		return p
	}
	return s.fallback
}

// Admit implements domain.Limiter.
//
// The scope lock is held across the global check so that refunding the
// scope reservation on a global denial is exact: no other reservation can
// slip in between reserve and cancel. Lock order is always scope then
// global, and the global entry never takes a scope lock.
func (s *Store) Admit(class domain.Class, key domain.Key) domain.Decision {
	now := s.clock.Now()
	ent := s.scope(class, key, now)

	ent.mu.Lock()
	defer ent.mu.Unlock()

	res := ent.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return domain.Decision{Allowed: false, RetryAfter: delay}
	}

	gok, gretry := admitOne(s.global, now)
	if !gok {
		// Refund the scope token: a global denial must not waste
		// per-scope capacity.
		res.CancelAt(now)
		return domain.Decision{Allowed: false, RetryAfter: gretry}
	}
	return domain.Decision{Allowed: true}
}

// admitOne reserves one token at time now. On denial the reservation is
// cancelled immediately, leaving the bucket untouched, and the delay until
// a token would be available is returned.
func admitOne(ent *scopeEntry, now time.Time) (bool, time.Duration) {
	ent.mu.Lock()
	defer ent.mu.Unlock()

	res := ent.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (s *Store) scope(class domain.Class, key domain.Key, now time.Time) *scopeEntry {
	id := string(class) + "|" + string(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[id]; ok {
		ent.lastSeen = now
		return ent
	}

	ent := &scopeEntry{lim: newBucket(s.Profile(class)), lastSeen: now}
	s.entries[id] = ent
	return ent
}

// Cleanup drops buckets not seen within the idle TTL. The global bucket is
// never dropped.
func (s *Store) Cleanup() {
	cutoff := s.clock.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor starts a goroutine that periodically drops idle buckets.
// Stop it by cancelling the context.
func (s *Store) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
