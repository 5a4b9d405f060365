package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
)

// redisWindow is a fixed-window request counter shared across instances
// via Redis INCR/EXPIRE. Unlike the in-process slidingWindow it rounds to
// window-aligned buckets rather than tracking exact request timestamps —
// an acceptable approximation for a global cap shared by many processes.
type redisWindow struct {
	client      *redis.Client
	keyPrefix   string
	window      time.Duration
	maxRequests int
	logger      *zap.Logger
}

func newRedisWindow(client *redis.Client, keyPrefix string, maxRequests int, window time.Duration, logger *zap.Logger) *redisWindow {
	return &redisWindow{
		client:      client,
		keyPrefix:   keyPrefix,
		window:      window,
		maxRequests: maxRequests,
		logger:      logger,
	}
}

func (w *redisWindow) bucketKey() string {
	bucket := time.Now().UnixNano() / w.window.Nanoseconds()
	return fmt.Sprintf("%s:%d", w.keyPrefix, bucket)
}

// allow increments the current bucket's counter, creating it with a TTL
// on first use. On any Redis error it fails open (allows the request) and
// logs a warning — a global admission gate should not become a single
// point of failure for the whole pipeline.
func (w *redisWindow) allow() bool {
	if w.maxRequests <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	key := w.bucketKey()
	count, err := w.client.Incr(ctx, key).Result()
	if err != nil {
		w.logger.Warn("redis rate limit counter unavailable, failing open", zap.Error(err))
		return true
	}
	if count == 1 {
		w.client.Expire(ctx, key, w.window)
	}

	return count <= int64(w.maxRequests)
}

func (w *redisWindow) resetAfter() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	ttl, err := w.client.TTL(ctx, w.bucketKey()).Result()
	if err != nil || ttl < 0 {
		return w.window
	}
	return ttl
}

func (w *redisWindow) reset() {
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	w.client.Del(ctx, w.bucketKey())
}

// NewDistributed constructs a Limiter whose global per-second/per-minute
// layer is enforced across all instances sharing client, while the
// per-provider and per-user-tier layers remain process-local.
func NewDistributed(cfg config.RateLimitConfig, client *redis.Client, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newLimiter(cfg, logger,
		newRedisWindow(client, "ratelimit:global:sec", cfg.GlobalPerSecond, time.Second, logger),
		newRedisWindow(client, "ratelimit:global:min", cfg.GlobalPerMinute, time.Minute, logger),
	)
}
