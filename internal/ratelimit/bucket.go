package ratelimit

import (
	"sync"
	"time"

	"github.com/Trafexofive/DeepSearchStack/config"
)

// tokenBucket refills continuously at refillRate tokens/sec up to
// capacity. consume(n) returns false without mutation if fewer than n
// tokens are present.
type tokenBucket struct {
	capacity   float64
	refillRate float64

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastUsed   time.Time
}

func newTokenBucket(tier config.TierConfig) *tokenBucket {
	now := time.Now()
	return &tokenBucket{
		capacity:   tier.Capacity,
		refillRate: tier.RefillRate,
		tokens:     tier.Capacity,
		lastRefill: now,
		lastUsed:   now,
	}
}

func (b *tokenBucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

func (b *tokenBucket) consume(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	b.lastUsed = time.Now()

	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// refillETA estimates how long until n tokens will be available.
func (b *tokenBucket) refillETA(n float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	if b.tokens >= n {
		return 0
	}
	if b.refillRate <= 0 {
		return 0
	}
	deficit := n - b.tokens
	return time.Duration(deficit / b.refillRate * float64(time.Second))
}

// idleSince reports whether the bucket has been full and untouched for
// longer than after.
func (b *tokenBucket) idleSince(after time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	return b.tokens >= b.capacity && time.Since(b.lastUsed) > after
}
