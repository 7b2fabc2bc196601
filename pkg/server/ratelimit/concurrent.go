package ratelimit

import (
	"sync/atomic"
)

// ConcurrentLimiter is a counting semaphore that rejects instead of
// blocking.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire takes a slot if one is free. A successful Acquire must be paired
// with Release.
func (cl *ConcurrentLimiter) Acquire() bool {
	if cl.current.Add(1) > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release frees a slot taken by Acquire.
func (cl *ConcurrentLimiter) Release() {
	cl.current.Add(-1)
}

// Current returns the number of slots in use.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Limit returns the number of slots.
func (cl *ConcurrentLimiter) Limit() int64 {
	return cl.limit
}
