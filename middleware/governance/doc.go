// Package governance provides net/http adapters for the resource
// governance layer: a TTL/LRU response cache, per-class token-bucket rate
// limiting, a circuit breaker for the external data API, and a process-wide
// request throttle.
//
// Layering:
//
//   - domain: contracts and value types (no net/http dependency)
//   - application: use cases (decide, acquire, get-or-compute) without net/http
//   - infra: concrete implementations (token buckets, LRU cache, breaker,
//     throttler, stats stores)
//   - governance (this package): HTTP middlewares + key extraction + the
//     admin surface + translation to statuses/headers
//
// Per inbound request the gateway chains, outermost first:
//
//  1. Throttle: minimum spacing between any two admitted requests (503)
//  2. Concurrency: cap on in-flight requests (503)
//  3. Breaker: fail fast while the external data API is unhealthy (503);
//     only on routes whose upstream handler crosses that boundary
//  4. RateLimit: per-(class, client) and global token buckets (429 with a
//     retry_after hint)
//  5. Cache: memoize 2xx GET responses before the reverse proxy
//
// A denial at any stage short-circuits before the expensive call executes.
// Stage behavior is driven by the environment of cmd/gateway (UPSTREAM_URL,
// THROTTLE_MIN_DELAY, BREAKER_*, CACHE_*, RATE_* variables).
package governance
