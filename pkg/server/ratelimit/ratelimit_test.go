package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTokenBucket_Basic(t *testing.T) {
	bucket := NewTokenBucket(10, 10)

	if !bucket.Take(5) {
		t.Error("Take(5) from a full bucket failed")
	}
	if got := bucket.Remaining(); got != 5 {
		t.Errorf("Remaining() = %d, want 5", got)
	}
	if !bucket.Take(5) {
		t.Error("Take(5) of the remaining tokens failed")
	}
	if bucket.Take(1) {
		t.Error("Take(1) from an empty bucket succeeded")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 10, clock.Now)
	bucket.Take(10)

	if got := bucket.TimeUntilAvailable(1); got != 100*time.Millisecond {
		t.Errorf("TimeUntilAvailable(1) = %v, want 100ms", got)
	}

	clock.Advance(50 * time.Millisecond)
	if bucket.Take(1) {
		t.Error("Take(1) succeeded after half a token refilled")
	}

	clock.Advance(50 * time.Millisecond)
	if !bucket.Take(1) {
		t.Error("Take(1) failed after a full token refilled")
	}

	clock.Advance(time.Hour)
	if got := bucket.Remaining(); got != 10 {
		t.Errorf("Remaining() = %d after a long idle, want capacity 10", got)
	}
	if !bucket.Full() {
		t.Error("Full() = false after refilling to capacity")
	}
}

func TestConcurrentLimiter(t *testing.T) {
	cl := NewConcurrentLimiter(2)

	if !cl.Acquire() || !cl.Acquire() {
		t.Fatal("Acquire() within the limit failed")
	}
	if cl.Acquire() {
		t.Error("Acquire() beyond the limit succeeded")
	}
	if cl.Current() != 2 {
		t.Errorf("Current() = %d, want 2", cl.Current())
	}

	cl.Release()
	if !cl.Acquire() {
		t.Error("Acquire() after Release() failed")
	}
}

func TestConcurrentLimiter_Parallel(t *testing.T) {
	cl := NewConcurrentLimiter(5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cl.Acquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 5 {
		t.Errorf("acquired %d slots, want 5", acquired)
	}
}

func TestLimiter_PerClient(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(Config{RequestsPerSecond: 1, Burst: 2}, clock.Now)

	for i := 0; i < 2; i++ {
		if res := l.Allow("10.0.0.1"); !res.Allowed {
			t.Fatalf("request %d rejected: %+v", i, res)
		}
	}

	res := l.Allow("10.0.0.1")
	if res.Allowed {
		t.Fatal("third request within the burst window allowed")
	}
	if res.RetryAfter != time.Second || res.Limit != 2 || res.Remaining != 0 {
		t.Errorf("rejection = %+v, want retry after 1s with limit 2", res)
	}

	if res := l.Allow("10.0.0.2"); !res.Allowed || res.Remaining != 1 {
		t.Errorf("other client = %+v, want allowed with 1 remaining", res)
	}

	clock.Advance(time.Second)
	if res := l.Allow("10.0.0.1"); !res.Allowed {
		t.Errorf("request after refill rejected: %+v", res)
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 100; i++ {
		if !l.Allow("client").Allowed {
			t.Fatal("request rejected with rate limiting disabled")
		}
		if !l.Acquire() {
			t.Fatal("Acquire() failed with no concurrency limit")
		}
	}
	if l.Clients() != 0 || l.InFlight() != 0 {
		t.Errorf("Clients() = %d, InFlight() = %d; want 0, 0", l.Clients(), l.InFlight())
	}

	if got := New(Config{RequestsPerSecond: 5}).config.Burst; got != 10 {
		t.Errorf("default burst = %d, want 10", got)
	}
	if got := New(Config{RequestsPerSecond: 0.1}).config.Burst; got != 1 {
		t.Errorf("default burst = %d, want 1", got)
	}
}

func TestLimiter_Concurrency(t *testing.T) {
	l := New(Config{MaxConcurrent: 1})
	if !l.Acquire() {
		t.Fatal("first Acquire() failed")
	}
	if l.Acquire() {
		t.Error("second Acquire() succeeded")
	}
	if l.InFlight() != 1 {
		t.Errorf("InFlight() = %d, want 1", l.InFlight())
	}
	l.Release()
	if !l.Acquire() {
		t.Error("Acquire() after Release() failed")
	}
}

func TestLimiter_SweepsIdleClients(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(Config{RequestsPerSecond: 10, Burst: 10, IdleTTL: time.Minute}, clock.Now)

	l.Allow("a")
	l.Allow("b")
	if l.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", l.Clients())
	}

	clock.Advance(2 * time.Minute)
	l.Allow("c")
	if l.Clients() != 1 {
		t.Errorf("Clients() = %d after sweep, want 1", l.Clients())
	}
}
