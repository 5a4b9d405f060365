// Package ratelimit implements the two-layer request admission control
// shared across search, scrape, and synthesis calls: global sliding
// windows, per-provider sliding windows, and per-user tiered token
// buckets. This package is internal and should not be imported by
// external projects.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
)

// Tier names a user's token-bucket tier.
type Tier string

const (
	TierDefault    Tier = "default"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Decision reports the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Reason     string
	RetryAfter time.Duration
}

// window is the admission check shared by the in-memory sliding window
// and the Redis-backed distributed counter, so either can back the
// global layer.
type window interface {
	allow() bool
	resetAfter() time.Duration
	reset()
}

// Limiter enforces global, per-provider, and per-user-tier admission in
// that order — a request must pass all three to proceed.
type Limiter struct {
	cfg    config.RateLimitConfig
	logger *zap.Logger

	globalPerSecond window
	globalPerMinute window

	mu              sync.Mutex
	providerWindows map[string]*slidingWindow
	userBuckets     map[string]*tokenBucket

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New constructs a Limiter whose global layer is enforced in-process
// only, from the domain rate-limit configuration. Starts the idle-bucket
// reaper if IdleReapAfter is positive.
func New(cfg config.RateLimitConfig, logger *zap.Logger) *Limiter {
	return newLimiter(cfg, logger, newSlidingWindow(cfg.GlobalPerSecond, time.Second), newSlidingWindow(cfg.GlobalPerMinute, time.Minute))
}

func newLimiter(cfg config.RateLimitConfig, logger *zap.Logger, globalPerSecond, globalPerMinute window) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Limiter{
		cfg:             cfg,
		logger:          logger.With(zap.String("component", "rate_limiter")),
		globalPerSecond: globalPerSecond,
		globalPerMinute: globalPerMinute,
		providerWindows: make(map[string]*slidingWindow),
		userBuckets:     make(map[string]*tokenBucket),
		stopCh:          make(chan struct{}),
	}

	if cfg.IdleReapAfter > 0 {
		go l.reapLoop()
	}

	return l
}

// Allow checks global, per-provider (if provider is non-empty), and
// per-user-tier admission, consuming one unit of each on success. The
// first failing layer determines the Decision.
func (l *Limiter) Allow(provider, userID string, tier Tier) Decision {
	if !l.globalPerSecond.allow() {
		return Decision{Reason: "global requests-per-second limit exceeded", RetryAfter: l.globalPerSecond.resetAfter()}
	}
	if !l.globalPerMinute.allow() {
		return Decision{Reason: "global requests-per-minute limit exceeded", RetryAfter: l.globalPerMinute.resetAfter()}
	}

	if provider != "" {
		window := l.providerWindow(provider)
		if !window.allow() {
			return Decision{Reason: fmt.Sprintf("provider %q rate limit exceeded", provider), RetryAfter: window.resetAfter()}
		}
	}

	if userID != "" {
		bucket := l.userBucket(userID, tier)
		if !bucket.consume(1) {
			return Decision{Reason: fmt.Sprintf("user %q token bucket exhausted", userID), RetryAfter: bucket.refillETA(1)}
		}
	}

	return Decision{Allowed: true}
}

func (l *Limiter) providerWindow(provider string) *slidingWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.providerWindows[provider]
	if !ok {
		w = newSlidingWindow(l.cfg.ProviderPerSecond, time.Second)
		l.providerWindows[provider] = w
	}
	return w
}

func (l *Limiter) userBucket(userID string, tier Tier) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.userBuckets[userID]
	if !ok {
		b = newTokenBucket(l.tierConfig(tier))
		l.userBuckets[userID] = b
	}
	return b
}

func (l *Limiter) tierConfig(tier Tier) config.TierConfig {
	switch tier {
	case TierPremium:
		return l.cfg.PremiumTier
	case TierEnterprise:
		return l.cfg.EnterpriseTier
	default:
		return l.cfg.DefaultTier
	}
}

// reapLoop periodically removes user buckets that are both full and idle
// for longer than IdleReapAfter.
func (l *Limiter) reapLoop() {
	interval := l.cfg.IdleReapAfter / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.reapIdleBuckets()
		}
	}
}

func (l *Limiter) reapIdleBuckets() {
	l.mu.Lock()
	defer l.mu.Unlock()

	reaped := 0
	for key, bucket := range l.userBuckets {
		if bucket.idleSince(l.cfg.IdleReapAfter) {
			delete(l.userBuckets, key)
			reaped++
		}
	}
	if reaped > 0 {
		l.logger.Debug("reaped idle rate limit buckets", zap.Int("count", reaped))
	}
}

// Stop halts the background reaper. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Reset clears all per-provider and per-user state. Intended for tests.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalPerSecond.reset()
	l.globalPerMinute.reset()
	l.providerWindows = make(map[string]*slidingWindow)
	l.userBuckets = make(map[string]*tokenBucket)
}
