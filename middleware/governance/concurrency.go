package governance

import (
	"net/http"
	"time"

	"tracker-gateway/middleware/governance/application"
	"tracker-gateway/middleware/governance/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// ConcurrencyMiddleware caps the number of in-flight requests. Max <= 0
// disables the stage entirely.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				markLocalReply(r.Context())
				writeJSON(w, opts.RejectStatus, map[string]any{
					"error": "Service temporarily overloaded. Please try again later.",
				})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
