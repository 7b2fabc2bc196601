package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"mercator-hq/metricguard/pkg/server/ratelimit"
	"mercator-hq/metricguard/pkg/server/types"
)

// ThrottleRecorder records rejected requests. *metrics.Collector satisfies it.
type ThrottleRecorder interface {
	RecordThrottled(reason string)
}

// RateLimitMiddleware applies the limiter to API requests under /v1/.
// Health, version and metrics endpoints are never throttled. Clients are
// keyed by remote IP. Rejected requests get 429 with a Retry-After header.
// recorder may be nil.
func RateLimitMiddleware(l *ratelimit.Limiter, recorder ThrottleRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Allow(clientIP(r))
			if res.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			}
			if !res.Allowed {
				throttled(w, r, recorder, "rate", res.Reason, res.RetryAfter.Seconds())
				return
			}

			if !l.Acquire() {
				throttled(w, r, recorder, "concurrency", "too many concurrent requests", 1)
				return
			}
			defer l.Release()

			next.ServeHTTP(w, r)
		})
	}
}

func throttled(w http.ResponseWriter, r *http.Request, recorder ThrottleRecorder, reason, message string, retryAfter float64) {
	if recorder != nil {
		recorder.RecordThrottled(reason)
	}
	slog.DebugContext(r.Context(), "request throttled",
		"reason", reason,
		"client", clientIP(r),
		"path", r.URL.Path,
	)

	secs := int(math.Ceil(retryAfter))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	types.NewRateLimitError(message).Write(w)
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
