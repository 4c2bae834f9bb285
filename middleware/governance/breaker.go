package governance

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"

	"tracker-gateway/middleware/governance/application"
	"tracker-gateway/middleware/governance/domain"

	"go.uber.org/zap"
)

type BreakerOptions struct {
	Breaker      domain.Breaker
	RejectStatus int
	Logger       *zap.Logger
}

// BreakerMiddleware gates routes whose upstream handler calls the external
// data API. While the breaker is open, requests are rejected without
// attempting the boundary call. Every admitted attempt is resolved exactly
// once: when the boundary call ran, a response status of 500 or above
// (including the proxy's 502 on transport errors) counts as a failure and
// anything else as a success; when an inner stage answered the request
// itself (a rate-limit denial, a cache hit) the attempt is cancelled and
// contributes no outcome, so a denial can never close a half-open circuit.
// A panic downstream is reported as a failure and re-raised.
func BreakerMiddleware(opts BreakerOptions) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.BreakerService{Breaker: opts.Breaker}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !svc.Allow() {
				opts.Logger.Debug("failing fast", zap.String("path", r.URL.Path), zap.Error(domain.ErrCircuitOpen))
				writeJSON(w, opts.RejectStatus, map[string]any{
					"error": "Service temporarily unavailable",
				})
				return
			}

			ctx, reply := withReplyMarker(r.Context())
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if p := recover(); p != nil {
					svc.Record(false)
					panic(p)
				}
			}()
			next.ServeHTTP(rec, r.WithContext(ctx))
			if reply.local {
				svc.Cancel()
				return
			}
			svc.Record(rec.status < http.StatusInternalServerError)
		})
	}
}

// replyMarker flags a request that a governance stage answered itself,
// without reaching the downstream boundary.
type replyMarker struct{ local bool }

type replyMarkerKey struct{}

func withReplyMarker(ctx context.Context) (context.Context, *replyMarker) {
	m := &replyMarker{}
	return context.WithValue(ctx, replyMarkerKey{}, m), m
}

// markLocalReply records that the current request was answered by a
// governance stage rather than the proxied upstream. No-op outside a
// breaker-guarded chain.
func markLocalReply(ctx context.Context) {
	if m, ok := ctx.Value(replyMarkerKey{}).(*replyMarker); ok {
		m.local = true
	}
}

// statusRecorder captures the status written downstream while passing
// everything else through, including streaming flushes.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ReadFrom keeps the sendfile fast path available to the reverse proxy.
func (r *statusRecorder) ReadFrom(src io.Reader) (int64, error) {
	r.wroteHeader = true
	if rf, ok := r.ResponseWriter.(io.ReaderFrom); ok {
		return rf.ReadFrom(src)
	}
	return io.Copy(r.ResponseWriter, src)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
