package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
)

// NewStore builds the Store backend selected by cfg.Sessions.Storage,
// mirroring agent/persistence's factory.go switch-on-config-string pattern.
//
// "memory" selects RedisConfig's ephemeral TTL-KV backend despite the name —
// the config layer names it for the lifecycle it gives sessions (gone once
// they age out), not the storage medium; see DESIGN.md for this decision.
// "sql" selects the durable relational backend. When session storage is
// disabled entirely, an in-process MemoryStore is used so callers never have
// to nil-check the store.
func NewStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	if !cfg.Sessions.Enabled {
		return NewMemoryStore(), nil
	}

	switch cfg.Sessions.Storage {
	case "", "memory":
		return NewRedisStore(cfg.Redis, cfg.Sessions.TTL, logger)
	case "sql":
		return NewSQLStore(ctx, cfg.Database, cfg.Sessions.TTL, logger)
	default:
		return nil, fmt.Errorf("unsupported session storage backend: %s", cfg.Sessions.Storage)
	}
}
