// Package ratelimit throttles decision API clients.
//
// Each client key (the remote IP in the HTTP middleware) gets its own token
// bucket: requests consume one token and tokens refill at a constant rate up
// to the burst size. A process-wide concurrency limit caps in-flight
// requests regardless of client.
//
//	l := ratelimit.New(ratelimit.Config{
//	    RequestsPerSecond: 50,
//	    Burst:             100,
//	    MaxConcurrent:     64,
//	})
//	if res := l.Allow(clientIP); !res.Allowed {
//	    // reply 429 with res.RetryAfter
//	}
//
// Buckets idle for longer than Config.IdleTTL are dropped so the limiter
// does not grow with the number of distinct clients.
package ratelimit
