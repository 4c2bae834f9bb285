package infra

import (
	"context"
	"testing"

	"tracker-gateway/middleware/governance/domain"

	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_CountsByClassAndRoute(t *testing.T) {
	s := NewMemoryStatsStore()

	events := []domain.StatsEvent{
		{Class: "leaderboard-read", Key: "1.2.3.4", Allowed: true, Method: "GET", Path: "/leaderboard"},
		{Class: "leaderboard-read", Key: "1.2.3.4", Allowed: false, Method: "GET", Path: "/leaderboard"},
		{Class: "user-write", Key: "5.6.7.8", Allowed: true, Method: "POST", Path: "/user/alice"},
	}
	for _, ev := range events {
		require.NoError(t, s.Record(context.Background(), ev))
	}

	require.Equal(t, Counters{Allowed: 2, Denied: 1}, s.Total())
	require.Equal(t, Counters{Allowed: 1, Denied: 1}, s.ByClass()["leaderboard-read"])
	require.Equal(t, Counters{Allowed: 1}, s.ByClass()["user-write"])
	require.Equal(t, Counters{Allowed: 1, Denied: 1}, s.ByRoute()["GET /leaderboard"])
}

func TestMemoryStatsStore_TracksKeysOnlyWhenEnabled(t *testing.T) {
	off := NewMemoryStatsStore()
	_ = off.Record(context.Background(), domain.StatsEvent{Key: "1.2.3.4", Allowed: true})
	require.Empty(t, off.ByKey())

	on := NewMemoryStatsStore(WithTrackKeys(true))
	_ = on.Record(context.Background(), domain.StatsEvent{Key: "1.2.3.4", Allowed: true})
	require.Equal(t, Counters{Allowed: 1}, on.ByKey()["1.2.3.4"])
}
