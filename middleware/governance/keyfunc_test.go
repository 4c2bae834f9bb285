package governance

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultKeyFunc_PrefersKeyHeader(t *testing.T) {
	fn := DefaultKeyFunc("X-API-Key", true)

	r := httptest.NewRequest("GET", "/leaderboard", nil)
	r.RemoteAddr = "192.0.2.10:4242"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-API-Key", "  client-42  ")

	require.Equal(t, "client-42", fn(r))
}

func TestDefaultKeyFunc_UsesFirstForwardedHopWhenTrusted(t *testing.T) {
	fn := DefaultKeyFunc("", true)

	r := httptest.NewRequest("GET", "/leaderboard", nil)
	r.RemoteAddr = "192.0.2.10:4242"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	require.Equal(t, "203.0.113.7", fn(r))
}

func TestDefaultKeyFunc_IgnoresForwardedHeaderWhenUntrusted(t *testing.T) {
	fn := DefaultKeyFunc("", false)

	r := httptest.NewRequest("GET", "/leaderboard", nil)
	r.RemoteAddr = "192.0.2.10:4242"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")

	require.Equal(t, "192.0.2.10", fn(r))
}

func TestDefaultKeyFunc_FallsBackToRemoteAddrThenUnknown(t *testing.T) {
	fn := DefaultKeyFunc("", false)

	r := httptest.NewRequest("GET", "/leaderboard", nil)
	r.RemoteAddr = "192.0.2.10:4242"
	require.Equal(t, "192.0.2.10", fn(r))

	r.RemoteAddr = "bare-host"
	require.Equal(t, "bare-host", fn(r))

	r.RemoteAddr = ""
	require.Equal(t, "unknown", fn(r))
}
