// Package session provides the append-only conversation-turn store behind
// session CRUD: create, get-by-id, append-message, paginated list, delete.
// Two pluggable backends satisfy the same Store contract — an ephemeral
// TTL-bound KV store (Redis) and a durable relational store (gorm, any SQL
// driver the migration layer supports) — mirroring the dual-backend shape
// of agent/persistence's MessageStore/TaskStore.
package session

import (
	"context"
	"errors"
	"time"
)

// Common errors, mirroring agent/persistence's sentinel error set.
var (
	ErrNotFound = errors.New("session: not found")
)

// Message is one append-only conversation turn.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Session is an opaque, append-only conversation record. Ownership: created
// by the boundary API, mutated only by the orchestrator after each turn via
// AppendMessage, deleted by explicit request or TTL expiry.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Store is the uniform contract both backends satisfy.
type Store interface {
	// Create persists a new, empty session under id and returns it.
	Create(ctx context.Context, id string) (Session, error)

	// Get retrieves a session by id, including its full message history.
	// Returns ErrNotFound if the session doesn't exist (or has expired).
	Get(ctx context.Context, id string) (Session, error)

	// AppendMessage appends msg to session id's history. Existing messages
	// are never rewritten.
	AppendMessage(ctx context.Context, id string, msg Message) error

	// List returns up to limit sessions, newest first, skipping offset.
	List(ctx context.Context, limit, offset int) ([]Session, error)

	// Delete removes a session and its history. Deleting a non-existent
	// session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}
