package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"time"
)

// Middleware rejects requests over the limit, keyed by client address.
// Mount it after chi's RealIP so RemoteAddr reflects the real client.
// reject writes the response for throttled requests; onReject may be nil.
func Middleware(l Limiter, reject http.HandlerFunc, onReject func(r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(r.Context(), "ip:"+clientIP(r))
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				remaining := d.Limit - d.Count
				if remaining < 0 {
					remaining = 0
				}
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			}
			if !d.Allowed {
				if retry := time.Until(d.WindowEnd); retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				}
				if onReject != nil {
					onReject(r)
				}
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return host
}
