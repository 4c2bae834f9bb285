package infra

import (
	"time"

	"tracker-gateway/middleware/governance/domain"
)

// SystemClock is the production domain.Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

var _ domain.Clock = SystemClock{}
