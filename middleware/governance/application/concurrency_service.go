package application

import (
	"context"
	"time"

	"tracker-gateway/middleware/governance/domain"
)

// ConcurrencyService concentrates the acquire/release rule for in-flight
// slots with an optional timeout, without knowing anything about HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tries to take a slot.
//   - With AcquireTimeout <= 0 it waits indefinitely (until ctx ends).
//   - With AcquireTimeout > 0 it waits at most that long.
//
// Returns (release, ok). When ok=false no slot was acquired.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}
