package governance

import (
	"crypto/subtle"
	"net/http"
	"time"

	"tracker-gateway/middleware/governance/domain"
	"tracker-gateway/middleware/governance/infra"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminOptions struct {
	// Token is the shared secret expected in the "token" query parameter.
	// An empty token disables the authenticated surface.
	Token    string
	Cache    domain.ResultCache
	Breaker  domain.Breaker
	Throttle domain.Throttle
	Stats    *infra.MemoryStatsStore
	Logger   *zap.Logger
}

// AdminRouter exposes the inspection/control surface:
//
//	GET  /cache/stats       cache counters and hit rate
//	POST /cache/clear       empty the cache
//	GET  /governance/stats  breaker, throttle, and decision counters
//	POST /admin/sync-all    permanently retired (410 Gone)
//
// All but the retired endpoint require the shared-secret token.
func AdminRouter(opts AdminOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(requireToken(opts.Token))

		r.Get("/cache/stats", func(w http.ResponseWriter, req *http.Request) {
			if opts.Cache == nil {
				writeJSON(w, http.StatusNotFound, map[string]any{"error": "cache disabled"})
				return
			}
			s := opts.Cache.Stats()
			writeJSON(w, http.StatusOK, map[string]any{
				"hits":      s.Hits,
				"misses":    s.Misses,
				"evictions": s.Evictions,
				"size":      s.Size,
				"hit_rate":  formatPercent(s.HitRate()),
			})
		})

		r.Post("/cache/clear", func(w http.ResponseWriter, req *http.Request) {
			if opts.Cache != nil {
				opts.Cache.Clear()
			}
			opts.Logger.Info("cache cleared via admin surface")
			writeJSON(w, http.StatusOK, map[string]any{"message": "cache cleared"})
		})

		r.Get("/governance/stats", func(w http.ResponseWriter, req *http.Request) {
			body := map[string]any{}
			if opts.Breaker != nil {
				body["circuit_breaker"] = map[string]any{
					"state":    opts.Breaker.State().String(),
					"failures": opts.Breaker.Failures(),
				}
			}
			if opts.Throttle != nil {
				var last any
				if t := opts.Throttle.LastAdmitted(); !t.IsZero() {
					last = t.UTC().Format(time.RFC3339Nano)
				}
				body["throttle"] = map[string]any{"last_admitted": last}
			}
			if opts.Stats != nil {
				total := opts.Stats.Total()
				body["rate_limit"] = map[string]any{
					"allowed": total.Allowed,
					"denied":  total.Denied,
				}
			}
			writeJSON(w, http.StatusOK, body)
		})
	})

	r.Post("/admin/sync-all", RetiredBulkSyncHandler())

	return r
}

// requireToken gates a route group behind the shared-secret query token.
func requireToken(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "admin surface disabled"})
				return
			}
			got := r.URL.Query().Get("token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RetiredBulkSyncHandler answers for the removed bulk-synchronization
// endpoint. The operation now runs as a scheduled job outside the API
// process; the endpoint stays mapped so old clients get an explanation
// instead of a bare 404.
func RetiredBulkSyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusGone, map[string]any{
			"error":   "This endpoint has been permanently removed.",
			"message": "Bulk user synchronization now runs as a scheduled job outside the API process.",
		})
	}
}
