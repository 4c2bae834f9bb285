package infra

import (
	"context"

	"tracker-gateway/middleware/governance/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool creates a simple channel-backed pool with capacity max.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
