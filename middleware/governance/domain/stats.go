package domain

import (
	"context"
	"time"
)

// StatsEvent records one admission decision.
//
// Method/Path are generic strings on purpose so the same event works for
// web, gRPC, or batch callers.
//
// Watch cardinality: recording Key/Path without bounds can blow up the
// number of series/keys in a backend like Redis.
type StatsEvent struct {
	Class   Class
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// StatsStore is the persistence strategy for admission statistics.
//
// Implementations may store in memory, Redis, etc. Callers must treat
// Record as best-effort; a stats failure never fails the request.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
