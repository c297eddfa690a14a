package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"opentrends/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	mode TEXT NOT NULL,
	slot TEXT NOT NULL,
	payload BLOB NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (mode, slot)
)`

// SQLiteStore keeps snapshots in an on-device SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// snapshots table exists. Use ":memory:" for an ephemeral store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Debug("storage: sqlite snapshot store ready", "path", path)
	return s, nil
}

// NewSQLiteStore wraps an existing connection.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (*model.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM snapshots WHERE mode = ? AND slot = ?",
		string(key.Mode), string(key.Slot)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", key, err)
	}
	return decode(key, payload)
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, snap model.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (mode, slot, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mode, slot) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		string(key.Mode), string(key.Slot), b, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
