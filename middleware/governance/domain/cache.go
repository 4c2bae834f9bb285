package domain

import (
	"context"
	"time"
)

// Compute produces the value for a cache miss. It wraps the expensive
// downstream call and is the only governance operation allowed to block.
type Compute func(ctx context.Context) (any, error)

// ResultCache memoizes the result of an expensive operation for a bounded
// duration and a bounded number of entries.
//
// A failed Compute must propagate to the caller without being cached; a
// failed fetch must not poison the cache.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute Compute) (any, error)
	Invalidate(key string)
	Clear()
	Stats() CacheStats
}

// CacheStats is a read-only aggregate view of the cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// HitRate returns the hit percentage over all lookups, 0 when idle.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
