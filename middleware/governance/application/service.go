package application

import (
	"tracker-gateway/middleware/governance/domain"
)

// Service concentrates the rate-limit application rule.
//
// It knows nothing about HTTP (headers/status); it only returns a decision.
// The retry hint comes from the limiter's own bucket math, not from a fixed
// configuration value.
type Service struct {
	Limits domain.Limiter
}

func (s Service) Decide(class domain.Class, key domain.Key) domain.Decision {
	if s.Limits == nil {
		return domain.Decision{Allowed: true}
	}
	return s.Limits.Admit(class, key)
}
