// Package session provides storage backends for per-user conversation state.
//
// The router depends only on the Store interface; backends include an
// in-memory map (default, process-lifetime state), SQLite, and PostgreSQL.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chibbonta/Wchat/internal/models"
)

// Store defines keyed access to conversation sessions. Operations on
// different user identifiers are independent; serialization of the
// read-modify-write for one user is the dispatcher's responsibility.
type Store interface {
	// Get returns the session for a user, or nil if none exists.
	Get(ctx context.Context, userID string) (*models.Session, error)

	// Set stores or replaces the session for session.UserID.
	Set(ctx context.Context, session models.Session) error

	// Delete removes the session for a user. Deleting an absent session is not an error.
	Delete(ctx context.Context, userID string) error
}

// Opts holds configuration options for database-backed stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store constructors.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// InMemoryStore is a map-backed Store keeping state for the process lifetime.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	slog.Debug("Creating InMemoryStore")
	return &InMemoryStore{sessions: make(map[string]models.Session)}
}

// Get returns a copy of the stored session, or nil if the user has none.
func (s *InMemoryStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// Set stores or replaces the session keyed by session.UserID.
func (s *InMemoryStore) Set(ctx context.Context, session models.Session) error {
	session.UpdatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session
	return nil
}

// Delete removes the session for a user.
func (s *InMemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
