package governance

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"tracker-gateway/middleware/governance/application"
	"tracker-gateway/middleware/governance/domain"
	"tracker-gateway/middleware/governance/infra"

	"go.uber.org/zap"
)

type CacheOptions struct {
	Cache  domain.ResultCache
	Class  domain.Class
	TTL    time.Duration
	Logger *zap.Logger

	// KeyFn derives the cache key; the default canonicalizes the class
	// with the request path and query.
	KeyFn func(r *http.Request) string
}

// CachedResponse is the business-shaped value the cache holds for a route:
// a full upstream response snapshot.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// WriteTo replays the snapshot onto a live response writer.
func (cr *CachedResponse) WriteTo(w http.ResponseWriter) {
	for k, vs := range cr.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(cr.Status)
	_, _ = w.Write(cr.Body)
}

// CacheMiddleware memoizes 2xx GET responses for the route's class. The
// wrapped handler (the reverse proxy, i.e. the expensive downstream call)
// only runs on a miss. Upstream statuses of 400 and above propagate to the
// client uncached, so a failed fetch never poisons the cache.
func CacheMiddleware(opts CacheOptions) func(next http.Handler) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	keyFn := opts.KeyFn

	svc := application.CacheService{Cache: opts.Cache}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || opts.Cache == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := cacheKeyFor(opts.Class, keyFn, r)

			var failed *CachedResponse
			computed := false
			v, err := svc.GetOrCompute(r.Context(), key, opts.TTL, func(ctx context.Context) (any, error) {
				computed = true
				rec := newResponseBuffer()
				next.ServeHTTP(rec, r.WithContext(ctx))
				snap := rec.snapshot()
				if snap.Status >= http.StatusBadRequest {
					failed = snap
					return nil, &domain.UpstreamError{Status: snap.Status}
				}
				return snap, nil
			})
			if err != nil {
				var ue *domain.UpstreamError
				if errors.As(err, &ue) && failed != nil {
					failed.WriteTo(w)
					return
				}
				opts.Logger.Error("cache compute failed", zap.String("key", key), zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]any{"error": "bad gateway"})
				return
			}

			if !computed {
				// Hit: served from the snapshot, the boundary was never
				// attempted.
				markLocalReply(r.Context())
			}
			v.(*CachedResponse).WriteTo(w)
		})
	}
}

func cacheKeyFor(class domain.Class, keyFn func(r *http.Request) string, r *http.Request) string {
	if keyFn != nil {
		return keyFn(r)
	}
	return infra.DeriveKey(string(class), r.URL.Path, r.URL.RawQuery)
}

// responseBuffer captures a downstream response instead of sending it.
type responseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{status: http.StatusOK, header: make(http.Header)}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) { b.status = status }

func (b *responseBuffer) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *responseBuffer) snapshot() *CachedResponse {
	return &CachedResponse{
		Status: b.status,
		Header: b.header.Clone(),
		Body:   append([]byte(nil), b.body.Bytes()...),
	}
}
