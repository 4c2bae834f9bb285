package application

import (
	"context"
	"time"

	"tracker-gateway/middleware/governance/domain"
)

// CacheService memoizes expensive computations. With no cache configured
// the computation simply runs every time.
type CacheService struct {
	Cache domain.ResultCache
}

func (s CacheService) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute domain.Compute) (any, error) {
	if s.Cache == nil {
		return compute(ctx)
	}
	return s.Cache.GetOrCompute(ctx, key, ttl, compute)
}
