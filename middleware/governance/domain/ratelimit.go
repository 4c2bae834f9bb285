package domain

// Token-bucket rate limiting contracts.
//
// A scope is an (endpoint class, client identity) pair, or the single
// global aggregate shared by all classes.

import "time"

// Class identifies a group of endpoints that share one rate-limit profile.
type Class string

const (
	ClassUserWrite       Class = "user-write"
	ClassReferralUse     Class = "referral-use"
	ClassLeaderboardRead Class = "leaderboard-read"
	ClassRankLookup      Class = "rank-lookup"
	ClassPointsLookup    Class = "points-lookup"
	ClassReferralStats   Class = "referral-stats"
)

// Key identifies a client within a class (usually its IP or API key).
type Key string

// Profile configures one bucket: maximum tokens and the continuous refill
// rate. Refill is lazy; tokens are computed from elapsed time at check
// time, never by a background timer.
type Profile struct {
	Capacity     int
	RefillPerSec float64
}

// Limiter decides a single admission for a scope. An implementation must
// check both the scope's own bucket and the global bucket, consuming a
// token from neither when either side denies.
type Limiter interface {
	Admit(class Class, key Key) Decision
}

type Decision struct {
	Allowed bool
	// RetryAfter is the wait until one token becomes available when the
	// admission is denied. Zero when allowed.
	RetryAfter time.Duration
}
