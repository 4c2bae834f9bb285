package governance

import (
	"net/http"
	"time"

	"tracker-gateway/middleware/governance/application"
	"tracker-gateway/middleware/governance/domain"

	"go.uber.org/zap"
)

type RateLimitOptions struct {
	Limits domain.Limiter
	Class  domain.Class
	Stats  domain.StatsStore
	Logger *zap.Logger

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	RejectStatus        int
	AddRateLimitHeaders bool
}

type profileInfo interface {
	Profile(domain.Class) domain.Profile
}

// RateLimitMiddleware admits or rejects requests against the class's
// per-client bucket and the global bucket. Denials answer 429 with a
// Retry-After header and a retry_after body, rounded up to whole seconds.
func RateLimitMiddleware(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.Service{Limits: opts.Limits}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				w.Header().Set("X-RateLimit-Class", string(opts.Class))
				if pi, ok := opts.Limits.(profileInfo); ok {
					p := pi.Profile(opts.Class)
					w.Header().Set("X-RateLimit-Burst", formatInt(p.Capacity))
					w.Header().Set("X-RateLimit-RPS", formatFloat(p.RefillPerSec))
				}
			}

			dec := svc.Decide(opts.Class, domain.Key(key))
			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Class:   opts.Class,
					Key:     domain.Key(key),
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
			}
			if !dec.Allowed {
				markLocalReply(r.Context())
				retry := ceilSeconds(dec.RetryAfter)
				opts.Logger.Debug("admission denied",
					zap.String("class", string(opts.Class)),
					zap.String("key", key),
					zap.Error(&domain.RateLimitError{RetryAfter: dec.RetryAfter}),
				)
				w.Header().Set("Retry-After", formatInt(retry))
				writeJSON(w, opts.RejectStatus, map[string]any{
					"error":       "Rate limit exceeded. Please slow down.",
					"retry_after": retry,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
