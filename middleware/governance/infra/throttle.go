package infra

import (
	"sync"
	"time"

	"tracker-gateway/middleware/governance/domain"
)

// Throttler enforces a minimum spacing between consecutive admitted
// requests, process-wide and independent of identity. Rejected requests do
// not move the timestamp.
type Throttler struct {
	mu           sync.Mutex
	clock        domain.Clock
	minDelay     time.Duration
	lastAdmitted time.Time
}

type ThrottlerOption func(*Throttler)

func WithThrottlerClock(c domain.Clock) ThrottlerOption {
	return func(t *Throttler) { t.clock = c }
}

// NewThrottler builds a throttler with the given minimum spacing. A
// non-positive minDelay admits everything.
func NewThrottler(minDelay time.Duration, opts ...ThrottlerOption) *Throttler {
	t := &Throttler{
		clock:    SystemClock{},
		minDelay: minDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ domain.Throttle = (*Throttler)(nil)

func (t *Throttler) TryAdmit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if t.minDelay > 0 && !t.lastAdmitted.IsZero() && now.Sub(t.lastAdmitted) < t.minDelay {
		return false
	}
	t.lastAdmitted = now
	return true
}

func (t *Throttler) LastAdmitted() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastAdmitted
}
