package middleware

import (
	"net/http"
	"time"
)

// HTTPRecorder records one completed request. *metrics.Collector satisfies it.
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, code int, duration time.Duration)
}

// MetricsMiddleware records request count and latency per route. Requests
// that match no route are recorded with an empty route.
func MetricsMiddleware(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, route := withRouteHolder(r.Context())

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			recorder.RecordHTTPRequest(route.pattern, r.Method, rw.statusCode, time.Since(start))
		})
	}
}
