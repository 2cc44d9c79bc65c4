// Package session provides storage backends for per-user conversation state.
//
// This file implements an SQLite-backed session store.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/chibbonta/Wchat/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite session store with the given DSN.
// The DSN should be a file path to the SQLite database file; the parent
// directory is created if needed.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves the session for a user, or nil if none exists.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, mode, step, fields, created_at, updated_at FROM sessions WHERE user_id = ?`, userID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("SQLiteStore Get not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore Get failed", "error", err, "userID", userID)
		return nil, err
	}
	return sess, nil
}

// Set stores or updates the session for session.UserID.
func (s *SQLiteStore) Set(ctx context.Context, session models.Session) error {
	fieldsJSON, err := marshalFields(session.Fields)
	if err != nil {
		slog.Error("SQLiteStore Set JSON marshal failed", "error", err, "userID", session.UserID)
		return err
	}
	session.UpdatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, mode, step, fields, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET mode = excluded.mode, step = excluded.step,
		   fields = excluded.fields, updated_at = excluded.updated_at`,
		session.UserID, string(session.Mode), string(session.Step), fieldsJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore Set failed", "error", err, "userID", session.UserID, "mode", session.Mode)
		return err
	}
	slog.Debug("SQLiteStore Set succeeded", "userID", session.UserID, "mode", session.Mode, "step", session.Step)
	return nil
}

// Delete removes the session for a user.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore Delete failed", "error", err, "userID", userID)
		return err
	}
	slog.Debug("SQLiteStore Delete succeeded", "userID", userID)
	return nil
}
