package governance

import (
	"net/http"

	"tracker-gateway/middleware/governance/application"
	"tracker-gateway/middleware/governance/domain"

	"go.uber.org/zap"
)

type ThrottleOptions struct {
	Throttle     domain.Throttle
	RejectStatus int
	Logger       *zap.Logger
}

// ThrottleMiddleware enforces the process-wide minimum spacing between
// admitted requests, before any identity-scoped check. Rejections answer
// service-unavailable with no retry hint beyond the fixed throttle window.
func ThrottleMiddleware(opts ThrottleOptions) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.ThrottleService{Throttle: opts.Throttle}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !svc.TryAdmit() {
				markLocalReply(r.Context())
				opts.Logger.Debug("spacing not met", zap.String("path", r.URL.Path), zap.Error(domain.ErrThrottled))
				writeJSON(w, opts.RejectStatus, map[string]any{
					"error": "Request throttled. Please wait before retrying.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
