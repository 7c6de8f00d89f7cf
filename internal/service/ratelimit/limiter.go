package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a per-key token bucket. Keys are client identities, typically
// remote addresses.
type Limiter struct {
	capacity   float64
	refillRate float64

	mu sync.Mutex
	m  map[string]*bucket
}

// PerMinute creates a limiter allowing n requests per minute per key, with
// burst capacity n.
func PerMinute(n int) *Limiter {
	return &Limiter{
		capacity:   float64(n),
		refillRate: float64(n) / 60.0,
		m:          make(map[string]*bucket),
	}
}

// Allow consumes one token for key, reporting whether it was available.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, capacity: l.capacity, refillRate: l.refillRate, last: now}
		l.m[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}
