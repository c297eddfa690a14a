// Package bookmarks persists saved ideas in a SQL database. Postgres is the
// hosted store; SQLite serves local use and tests.
package bookmarks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"opentrends/internal/apperr"
	"opentrends/internal/model"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrNotFound = errors.New("bookmark not found")

// Bookmark is a saved catalog item.
type Bookmark struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	CatalogItemID string     `json:"catalogItemId"`
	ItemName      string     `json:"itemName"`
	ItemPayload   model.Item `json:"itemPayload"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NewBookmark is the insert payload.
type NewBookmark struct {
	UserID        string     `json:"userId"`
	CatalogItemID string     `json:"catalogItemId"`
	ItemName      string     `json:"itemName"`
	ItemPayload   model.Item `json:"itemPayload"`
	Notes         string     `json:"notes,omitempty"`
}

func (n NewBookmark) validate() error {
	switch {
	case strings.TrimSpace(n.UserID) == "":
		return errors.New("user id is required")
	case strings.TrimSpace(n.CatalogItemID) == "":
		return errors.New("catalog item id is required")
	}
	return nil
}

// Store is a database/sql backed bookmark repository.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to dsn with the named driver and ensures the schema exists.
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("bookmarks: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperr.New(apperr.PersistenceFailed, "bookmarks.open", err)
	}
	if driver == DriverSQLite && dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s, err := New(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle and creates the schema if needed.
func New(db *sql.DB, driver string) (*Store, error) {
	s := &Store{db: db, driver: driver, now: time.Now}
	schema := sqliteSchema
	if driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, apperr.New(apperr.PersistenceFailed, "bookmarks.schema", fmt.Errorf("failed to create schema: %w", err))
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

const postgresSchema = `
CREATE TABLE IF NOT EXISTS saved_ideas (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    catalog_item_id TEXT NOT NULL,
    item_name TEXT NOT NULL,
    item_payload JSONB NOT NULL,
    notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_saved_ideas_user_created ON saved_ideas(user_id, created_at DESC);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saved_ideas (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    catalog_item_id TEXT NOT NULL,
    item_name TEXT NOT NULL,
    item_payload TEXT NOT NULL,
    notes TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saved_ideas_user_created ON saved_ideas(user_id, created_at DESC);
`

// Insert stores a new bookmark and returns it with its generated id.
func (s *Store) Insert(ctx context.Context, nb NewBookmark) (Bookmark, error) {
	if err := nb.validate(); err != nil {
		return Bookmark{}, apperr.New(apperr.PersistenceFailed, "bookmarks.insert", err)
	}
	payload, err := json.Marshal(nb.ItemPayload)
	if err != nil {
		return Bookmark{}, apperr.New(apperr.PersistenceFailed, "bookmarks.insert", err)
	}
	name := nb.ItemName
	if name == "" {
		name = nb.ItemPayload.Name
	}
	b := Bookmark{
		ID:            uuid.NewString(),
		UserID:        nb.UserID,
		CatalogItemID: nb.CatalogItemID,
		ItemName:      name,
		ItemPayload:   nb.ItemPayload,
		Notes:         nb.Notes,
		CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO saved_ideas (id, user_id, catalog_item_id, item_name, item_payload, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), b.ID, b.UserID, b.CatalogItemID, b.ItemName, string(payload), nullString(b.Notes), s.timeArg(b.CreatedAt))
	if err != nil {
		slog.Error("bookmarks: insert failed", "user", b.UserID, "item", b.CatalogItemID, "err", err)
		return Bookmark{}, apperr.New(apperr.PersistenceFailed, "bookmarks.insert", err)
	}
	return b, nil
}

// List returns the user's bookmarks, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, catalog_item_id, item_name, item_payload, notes, created_at
		FROM saved_ideas
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`), userID)
	if err != nil {
		return nil, apperr.New(apperr.PersistenceFailed, "bookmarks.list", err)
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		var (
			b       Bookmark
			payload []byte
			notes   sql.NullString
			created dbTime
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.CatalogItemID, &b.ItemName, &payload, &notes, &created); err != nil {
			return nil, apperr.New(apperr.PersistenceFailed, "bookmarks.list", err)
		}
		if err := json.Unmarshal(payload, &b.ItemPayload); err != nil {
			slog.Warn("bookmarks: undecodable payload", "id", b.ID, "err", err)
		}
		b.Notes = notes.String
		b.CreatedAt = created.Time
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.PersistenceFailed, "bookmarks.list", err)
	}
	return out, nil
}

// Delete removes a bookmark by id. A missing id wraps ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM saved_ideas WHERE id = ?`), id)
	if err != nil {
		return apperr.New(apperr.PersistenceFailed, "bookmarks.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.New(apperr.PersistenceFailed, "bookmarks.delete", err)
	}
	if n == 0 {
		return apperr.New(apperr.PersistenceFailed, "bookmarks.delete", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeArg stores SQLite timestamps as unix milliseconds.
func (s *Store) timeArg(t time.Time) any {
	if s.driver == DriverSQLite {
		return t.UnixMilli()
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// dbTime scans either a native timestamp or unix milliseconds.
type dbTime struct{ time.Time }

func (t *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		t.Time = x.UTC()
	case int64:
		t.Time = time.UnixMilli(x).UTC()
	case nil:
		t.Time = time.Time{}
	default:
		return fmt.Errorf("unsupported created_at type %T", v)
	}
	return nil
}
