package application

import (
	"tracker-gateway/middleware/governance/domain"
)

// BreakerService gates attempts against the protected downstream boundary.
//
// With no breaker configured every attempt is allowed and outcomes are
// dropped.
type BreakerService struct {
	Breaker domain.Breaker
}

func (s BreakerService) Allow() bool {
	if s.Breaker == nil {
		return true
	}
	return s.Breaker.Allow()
}

// Record reports the outcome of one admitted attempt whose boundary call
// ran. Every admitted attempt must be resolved exactly once, with either
// Record or Cancel.
func (s BreakerService) Record(success bool) {
	if s.Breaker != nil {
		s.Breaker.Record(success)
	}
}

// Cancel releases an admitted attempt that was answered before reaching
// the boundary; it contributes no outcome.
func (s BreakerService) Cancel() {
	if s.Breaker != nil {
		s.Breaker.Cancel()
	}
}
