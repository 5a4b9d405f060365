package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for local development and tests, the
// session-layer analogue of agent/persistence's MemoryMessageStore. It does
// not enforce TTL expiry on its own; it exists as the zero-configuration
// default, not a production ephemeral backend (use RedisStore for that).
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Create(ctx context.Context, id string) (Session, error) {
	now := time.Now().UTC()
	sess := &Session{ID: id, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return *sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	copied := *sess
	copied.Messages = append([]Message(nil), sess.Messages...)
	return copied, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, id string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = msg.Timestamp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	all := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		copied := *sess
		copied.Messages = append([]Message(nil), sess.Messages...)
		all = append(all, copied)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
