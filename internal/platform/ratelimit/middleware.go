package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type KeyFunc func(r *http.Request) string

// StatsRecorder receives allow/deny outcomes; implementations must be
// non-blocking best-effort (a stats failure never rejects a request).
type StatsRecorder interface {
	Record(ctx context.Context, key string, allowed bool, at time.Time)
}

type Options struct {
	Store        *Store
	Stats        StatsRecorder
	KeyFn        KeyFunc
	KeyHeader    string
	RejectStatus int
	RetryAfter   time.Duration
}

// DefaultKeyFunc keys by the given header when present, falling back to the
// client IP from RemoteAddr.
func DefaultKeyFunc(keyHeader string) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
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

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			allowed := opts.Store == nil || opts.Store.Allow(key)

			if opts.Stats != nil {
				opts.Stats.Record(r.Context(), key, allowed, time.Now())
			}
			if !allowed {
				w.Header().Set("Retry-After", formatSeconds(opts.RetryAfter))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
