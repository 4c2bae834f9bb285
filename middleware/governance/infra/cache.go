package infra

import (
	"container/list"
	"context"
	"sync"
	"time"

	"tracker-gateway/middleware/governance/domain"
)

// Cache is the in-memory TTL/LRU result cache.
//
// Entries are visible to readers only while now < expiresAt; expired
// entries are removed lazily on the read that finds them and do not count
// as evictions. Capacity eviction removes the least-recently-accessed live
// entry and increments the eviction counter.
//
// Two concurrent misses for the same key may both invoke compute; the last
// writer wins. Compute wraps a blocking downstream call and runs outside
// the lock, so a slow fetch never blocks unrelated keys.
type Cache struct {
	mu         sync.Mutex
	clock      domain.Clock
	maxEntries int
	ll         *list.List // front = most recently accessed
	items      map[string]*list.Element

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry struct {
	key            string
	value          any
	createdAt      time.Time
	expiresAt      time.Time
	lastAccessedAt time.Time
}

type CacheOption func(*Cache)

func WithCacheClock(c domain.Clock) CacheOption {
	return func(cc *Cache) { cc.clock = c }
}

// NewCache builds a cache holding at most maxEntries live entries.
func NewCache(maxEntries int, opts ...CacheOption) *Cache {
	c := &Cache{
		clock:      SystemClock{},
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.ResultCache = (*Cache)(nil)

// GetOrCompute returns the live cached value for key, or invokes compute,
// stores the result for ttl, and returns it. A compute error propagates
// unchanged and leaves the cache unmodified for that key.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute domain.Compute) (any, error) {
	c.mu.Lock()
	now := c.clock.Now()
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*cacheEntry)
		if now.Before(ent.expiresAt) {
			ent.lastAccessedAt = now
			c.ll.MoveToFront(el)
			c.hits++
			v := ent.value
			c.mu.Unlock()
			return v, nil
		}
		// Expired: normal turnover, not an eviction.
		c.remove(el)
	}
	c.misses++
	c.mu.Unlock()

	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.insert(key, v, ttl)
	c.mu.Unlock()
	return v, nil
}

// insert stores a fresh entry, evicting the least-recently-accessed entry
// first when the cache is at capacity. Caller holds the lock.
func (c *Cache) insert(key string, value any, ttl time.Duration) {
	now := c.clock.Now()

	if el, ok := c.items[key]; ok {
		// Lost a concurrent-compute race; replace in place.
		ent := el.Value.(*cacheEntry)
		ent.value = value
		ent.createdAt = now
		ent.expiresAt = now.Add(ttl)
		ent.lastAccessedAt = now
		c.ll.MoveToFront(el)
		return
	}

	if c.maxEntries > 0 && c.ll.Len() >= c.maxEntries {
		if oldest := c.ll.Back(); oldest != nil {
			c.remove(oldest)
			c.evictions++
		}
	}

	ent := &cacheEntry{
		key:            key,
		value:          value,
		createdAt:      now,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}
	c.items[key] = c.ll.PushFront(ent)
}

func (c *Cache) remove(el *list.Element) {
	ent := el.Value.(*cacheEntry)
	c.ll.Remove(el)
	delete(c.items, ent.key)
}

// Invalidate removes one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Clear empties the cache and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.hits, c.misses, c.evictions = 0, 0, 0
}

func (c *Cache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.ll.Len(),
	}
}
