package domain

import "time"

// BreakerState captures the circuit breaker states.
type BreakerState int

const (
	// BreakerClosed indicates normal operation; calls pass through.
	BreakerClosed BreakerState = iota
	// BreakerOpen indicates calls are rejected without attempting the
	// protected boundary.
	BreakerOpen
	// BreakerHalfOpen indicates a single trial call is permitted.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards one downstream boundary (the external data API).
//
// Every attempt admitted by Allow must be resolved exactly once, trial
// calls included: Record when the boundary call actually ran, Cancel when
// the request was answered before reaching the boundary. A cancelled
// attempt contributes no outcome and frees a half-open trial slot.
type Breaker interface {
	Allow() bool
	Record(success bool)
	Cancel()
	State() BreakerState
	Failures() int
}

// Throttle enforces a minimum spacing between consecutive admitted
// requests, process-wide and independent of identity.
type Throttle interface {
	TryAdmit() bool
	LastAdmitted() time.Time
}
