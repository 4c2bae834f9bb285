package governance

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extracts the client identity a rate-limit scope is keyed on.
type KeyFunc func(r *http.Request) string

// DefaultKeyFunc prefers an explicit key header, then (when trusted) the
// first X-Forwarded-For hop, then the remote address host.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// First X-Forwarded-For entry is the original client.
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					if ip := strings.TrimSpace(parts[0]); ip != "" {
						return ip
					}
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}
