package governance

import (
	"tracker-gateway/middleware/governance/domain"
)

// DefaultProfiles is the static per-endpoint-class bucket table. Capacity
// is the burst; refill is tokens per second, so the effective cooldown
// after exhausting a bucket is 1/refill per request:
//
//	user-write        5 @ 0.05/s  (20s)
//	referral-use      3 @ 0.02/s  (50s)
//	leaderboard-read 30 @ 0.5/s   (2s)
//	rank-lookup      20 @ 0.2/s   (5s)
//	points-lookup    20 @ 0.2/s   (5s)
//	referral-stats   15 @ 0.25/s  (4s)
func DefaultProfiles() map[domain.Class]domain.Profile {
	return map[domain.Class]domain.Profile{
		domain.ClassUserWrite:       {Capacity: 5, RefillPerSec: 0.05},
		domain.ClassReferralUse:     {Capacity: 3, RefillPerSec: 0.02},
		domain.ClassLeaderboardRead: {Capacity: 30, RefillPerSec: 0.5},
		domain.ClassRankLookup:      {Capacity: 20, RefillPerSec: 0.2},
		domain.ClassPointsLookup:    {Capacity: 20, RefillPerSec: 0.2},
		domain.ClassReferralStats:   {Capacity: 15, RefillPerSec: 0.25},
	}
}

// GlobalProfile is the aggregate bucket shared by all classes.
func GlobalProfile() domain.Profile {
	return domain.Profile{Capacity: 1000, RefillPerSec: 10}
}
