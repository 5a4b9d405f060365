package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisWindow_AllowsUpToLimit(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	w := newRedisWindow(client, "test:global:sec", 2, time.Second, zap.NewNop())

	assert.True(t, w.allow())
	assert.True(t, w.allow())
	assert.False(t, w.allow())
}

func TestRedisWindow_FailsOpenOnRedisError(t *testing.T) {
	mr, client := setupTestRedis(t)
	mr.Close() // closed immediately: every subsequent call errors
	defer client.Close()

	w := newRedisWindow(client, "test:global:sec", 1, time.Second, zap.NewNop())
	assert.True(t, w.allow())
}

func TestRedisWindow_DisabledWhenNonPositive(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	w := newRedisWindow(client, "test:global:sec", 0, time.Second, zap.NewNop())
	for i := 0; i < 10; i++ {
		assert.True(t, w.allow())
	}
}

func TestNewDistributed_EnforcesSharedGlobalLimit(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	cfg := testConfig()
	cfg.GlobalPerSecond = 1
	cfg.ProviderPerSecond = 100

	a := NewDistributed(cfg, client, zap.NewNop())
	defer a.Stop()
	b := NewDistributed(cfg, client, zap.NewNop())
	defer b.Stop()

	assert.True(t, a.Allow("", "", "").Allowed)
	// A second instance sharing the same Redis backend sees the same
	// exhausted global bucket.
	assert.False(t, b.Allow("", "", "").Allowed)
}
