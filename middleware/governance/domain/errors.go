package domain

import (
	"errors"
	"fmt"
	"time"
)

// Denial taxonomy. The four governance decisions are independent and
// composable; each denial short-circuits before the protected call runs,
// and none of them retries internally.

// ErrCircuitOpen means the protected boundary is presumed unhealthy; the
// caller must not retry before the cooldown elapses.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ErrThrottled means the process-wide minimum spacing between requests was
// not respected. Transient; retry after roughly the throttle interval.
var ErrThrottled = errors.New("request throttled")

// RateLimitError carries the wait until the denied scope has a token
// available. Recoverable by the caller after waiting; not an application
// error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// UpstreamError is an actual failure of the wrapped downstream call. It is
// reported to the circuit breaker and otherwise propagated unchanged; the
// governance layer never masks the underlying error.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream failure (status %d)", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
