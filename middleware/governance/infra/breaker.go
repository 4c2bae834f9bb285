package infra

import (
	"sync"
	"time"

	"tracker-gateway/middleware/governance/domain"
)

// Breaker tracks the recent failure rate of one downstream boundary and
// fails fast once the threshold is crossed, recovering through a single
// trial call.
//
// Transitions:
//   - Closed: failures accumulate inside the current window; reaching the
//     threshold opens the breaker. A window that elapses without tripping
//     resets the count, so stale failures never accumulate.
//   - Open: every attempt is rejected until the cooldown measured from
//     openedAt elapses, then the breaker goes half-open.
//   - HalfOpen: exactly one trial attempt is admitted. Success closes the
//     breaker and resets the window; failure reopens it with a fresh
//     cooldown.
type Breaker struct {
	mu    sync.Mutex
	clock domain.Clock

	failureThreshold int
	window           time.Duration
	cooldown         time.Duration

	state         domain.BreakerState
	failures      int
	windowStart   time.Time
	openedAt      time.Time
	trialInFlight bool
}

type BreakerOption func(*Breaker)

func WithBreakerClock(c domain.Clock) BreakerOption {
	return func(b *Breaker) { b.clock = c }
}

func NewBreaker(failureThreshold int, window, cooldown time.Duration, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		clock:            SystemClock{},
		failureThreshold: failureThreshold,
		window:           window,
		cooldown:         cooldown,
		state:            domain.BreakerClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ domain.Breaker = (*Breaker)(nil)

// Allow reports whether an attempt may proceed to the boundary. Admitted
// attempts must be reported back with Record exactly once.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	switch b.state {
	case domain.BreakerOpen:
		if now.Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = domain.BreakerHalfOpen
		b.trialInFlight = true
		return true
	case domain.BreakerHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default:
		b.rollover(now)
		return true
	}
}

// Record reports the outcome of one admitted attempt.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	switch b.state {
	case domain.BreakerHalfOpen:
		b.trialInFlight = false
		if success {
			b.state = domain.BreakerClosed
			b.failures = 0
			b.windowStart = now
			return
		}
		b.state = domain.BreakerOpen
		b.openedAt = now
	case domain.BreakerClosed:
		if success {
			return
		}
		b.rollover(now)
		if b.failures == 0 {
			b.windowStart = now
		}
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = domain.BreakerOpen
			b.openedAt = now
		}
	default:
		// Late outcome from a call admitted before the trip; the open
		// state already accounts for the unhealthy boundary.
	}
}

// Cancel releases an admitted attempt that never reached the boundary.
// No outcome is counted; a half-open trial slot is freed for the next
// attempt.
func (b *Breaker) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == domain.BreakerHalfOpen {
		b.trialInFlight = false
	}
}

func (b *Breaker) rollover(now time.Time) {
	if b.failures > 0 && now.Sub(b.windowStart) >= b.window {
		b.failures = 0
	}
}

func (b *Breaker) State() domain.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Surface the post-cooldown state without admitting a trial.
	if b.state == domain.BreakerOpen && b.clock.Now().Sub(b.openedAt) >= b.cooldown {
		return domain.BreakerHalfOpen
	}
	return b.state
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
