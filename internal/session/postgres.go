// Package session provides storage backends for per-user conversation state.
//
// This file implements a PostgreSQL-backed session store.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/chibbonta/Wchat/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions in a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL session store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run PostgreSQL migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgreSQL migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Get retrieves the session for a user, or nil if none exists.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, mode, step, fields, created_at, updated_at FROM sessions WHERE user_id = $1`, userID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("PostgresStore Get not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore Get failed", "error", err, "userID", userID)
		return nil, err
	}
	return sess, nil
}

// Set stores or updates the session for session.UserID.
func (s *PostgresStore) Set(ctx context.Context, session models.Session) error {
	fieldsJSON, err := marshalFields(session.Fields)
	if err != nil {
		slog.Error("PostgresStore Set JSON marshal failed", "error", err, "userID", session.UserID)
		return err
	}
	session.UpdatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, mode, step, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET mode = EXCLUDED.mode, step = EXCLUDED.step,
		   fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at`,
		session.UserID, string(session.Mode), string(session.Step), fieldsJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore Set failed", "error", err, "userID", session.UserID, "mode", session.Mode)
		return err
	}
	slog.Debug("PostgresStore Set succeeded", "userID", session.UserID, "mode", session.Mode, "step", session.Step)
	return nil
}

// Delete removes the session for a user.
func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore Delete failed", "error", err, "userID", userID)
		return err
	}
	slog.Debug("PostgresStore Delete succeeded", "userID", userID)
	return nil
}
