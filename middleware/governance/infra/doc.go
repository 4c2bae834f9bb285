// Package infra contains the concrete implementations (infrastructure) of
// the contracts defined in the domain package.
//
// Highlights:
//   - Store: per-scope + global token buckets on golang.org/x/time/rate
//   - Cache: TTL/LRU result cache with hit/miss/eviction counters
//   - Breaker: closed/open/half-open circuit breaker
//   - Throttler: process-wide minimum request spacing
//   - MemoryStatsStore / RedisStatsStore: admission decision counters
//
// Every component takes an injectable clock so tests drive time directly.
package infra
