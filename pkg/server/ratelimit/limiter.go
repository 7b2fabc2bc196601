package ratelimit

import (
	"sync"
	"time"
)

// DefaultIdleTTL is how long an unused client bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

// Config configures a Limiter. Zero values disable the matching limit.
type Config struct {
	// RequestsPerSecond is the sustained per-client request rate.
	RequestsPerSecond float64

	// Burst is the per-client bucket capacity. Defaults to twice
	// RequestsPerSecond, and at least 1.
	Burst int

	// MaxConcurrent caps in-flight requests across all clients.
	MaxConcurrent int

	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed bool

	// Reason explains a rejection.
	Reason string

	// Limit is the client's burst size.
	Limit int64

	// Remaining is how many requests the client may still make right away.
	Remaining int64

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

type clientBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// Limiter applies per-client request rates and a global concurrency cap.
type Limiter struct {
	config     Config
	concurrent *ConcurrentLimiter
	now        func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	return newLimiter(cfg, time.Now)
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	if cfg.RequestsPerSecond > 0 && cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}

	l := &Limiter{
		config:    cfg,
		now:       now,
		clients:   make(map[string]*clientBucket),
		lastSweep: now(),
	}
	if cfg.MaxConcurrent > 0 {
		l.concurrent = NewConcurrentLimiter(cfg.MaxConcurrent)
	}
	return l
}

// Allow consumes one request from key's bucket.
func (l *Limiter) Allow(key string) Result {
	if l.config.RequestsPerSecond <= 0 {
		return Result{Allowed: true}
	}

	b := l.bucket(key)
	if !b.Take(1) {
		return Result{
			Reason:     "request rate limit exceeded",
			Limit:      b.Capacity(),
			Remaining:  0,
			RetryAfter: b.TimeUntilAvailable(1),
		}
	}
	return Result{
		Allowed:   true,
		Limit:     b.Capacity(),
		Remaining: b.Remaining(),
	}
}

// Acquire takes a concurrency slot. It always succeeds when MaxConcurrent
// is zero. A successful Acquire must be paired with Release.
func (l *Limiter) Acquire() bool {
	if l.concurrent == nil {
		return true
	}
	return l.concurrent.Acquire()
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	if l.concurrent != nil {
		l.concurrent.Release()
	}
}

// InFlight returns the number of requests holding a concurrency slot.
func (l *Limiter) InFlight() int64 {
	if l.concurrent == nil {
		return 0
	}
	return l.concurrent.Current()
}

// Clients returns the number of tracked client buckets.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) bucket(key string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.config.IdleTTL {
		l.sweepLocked(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientBucket{
			bucket: newTokenBucket(int64(l.config.Burst), l.config.RequestsPerSecond, l.now),
		}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.bucket
}

// sweepLocked drops buckets that are idle and full, so forgetting them
// loses no state. Caller must hold l.mu.
func (l *Limiter) sweepLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.config.IdleTTL && c.bucket.Full() {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}
