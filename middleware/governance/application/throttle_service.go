package application

import (
	"tracker-gateway/middleware/governance/domain"
)

// ThrottleService applies the process-wide minimum request spacing.
type ThrottleService struct {
	Throttle domain.Throttle
}

func (s ThrottleService) TryAdmit() bool {
	if s.Throttle == nil {
		return true
	}
	return s.Throttle.TryAdmit()
}
