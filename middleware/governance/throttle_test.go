package governance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tracker-gateway/middleware/governance/infra"

	"github.com/stretchr/testify/require"
)

func TestThrottleMiddleware_EnforcesMinimumSpacing(t *testing.T) {
	clk := newFakeClock()
	mw := ThrottleMiddleware(ThrottleOptions{
		Throttle: infra.NewThrottler(500*time.Millisecond, infra.WithThrottlerClock(clk)),
	})
	h := mw(okHandler())

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/leaderboard", nil))
		return w
	}

	require.Equal(t, http.StatusOK, do().Code, "first request is always admitted")

	w := do()
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Request throttled. Please wait before retrying.", body.Error)

	clk.Advance(499 * time.Millisecond)
	require.Equal(t, http.StatusServiceUnavailable, do().Code)

	clk.Advance(time.Millisecond)
	require.Equal(t, http.StatusOK, do().Code)
}

func TestThrottleMiddleware_PassesThroughWhenDisabled(t *testing.T) {
	h := ThrottleMiddleware(ThrottleOptions{})(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/leaderboard", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
