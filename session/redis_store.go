package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// RedisStore is the ephemeral backend: every session's metadata and
// message list carries a TTL (refreshed on every write), so abandoned
// sessions expire without an explicit reaping pass — the Redis-native
// analogue of agent/persistence's RedisMessageStore.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisStore dials Redis per cfg and verifies connectivity with a ping.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, keyPrefix: "deepsearch:session:", ttl: ttl, logger: logger}, nil
}

func (s *RedisStore) metaKey(id string) string { return s.keyPrefix + "meta:" + id }
func (s *RedisStore) msgsKey(id string) string { return s.keyPrefix + "msgs:" + id }
func (s *RedisStore) indexKey() string         { return s.keyPrefix + "index" }

type sessionMeta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *RedisStore) Create(ctx context.Context, id string) (Session, error) {
	now := time.Now().UTC()
	meta := sessionMeta{CreatedAt: now, UpdatedAt: now}
	data, err := json.Marshal(meta)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session meta: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.metaKey(id), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixNano()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := s.client.Get(ctx, s.metaKey(id)).Bytes()
	if err == redis.Nil {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	var meta sessionMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Session{}, fmt.Errorf("unmarshal session meta: %w", err)
	}

	rawMsgs, err := s.client.LRange(ctx, s.msgsKey(id), 0, -1).Result()
	if err != nil {
		return Session{}, fmt.Errorf("list messages: %w", err)
	}
	messages := make([]Message, 0, len(rawMsgs))
	for _, m := range rawMsgs {
		var msg Message
		if err := json.Unmarshal([]byte(m), &msg); err != nil {
			s.logger.Warn("dropping unparsable stored message", zap.String("session_id", id), zap.Error(err))
			continue
		}
		messages = append(messages, msg)
	}

	return Session{ID: id, CreatedAt: meta.CreatedAt, UpdatedAt: meta.UpdatedAt, Messages: messages}, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, id string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	raw, err := s.client.Get(ctx, s.metaKey(id)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	var meta sessionMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("unmarshal session meta: %w", err)
	}
	meta.UpdatedAt = msg.Timestamp
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal session meta: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.msgsKey(id), data)
	pipe.Expire(ctx, s.msgsKey(id), s.ttl)
	pipe.Set(ctx, s.metaKey(id), metaData, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(meta.UpdatedAt.UnixNano()), Member: id})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) List(ctx context.Context, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err == ErrNotFound {
			continue // expired between index read and meta read
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.metaKey(id))
	pipe.Del(ctx, s.msgsKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
