// Package recstore is the persistent record store backing the clipboard
// history and the recent-launch list. SQLite with WAL mode and a busy
// timeout; records read newest-first. The store knows nothing about
// dedup or retention policy — that is the history package's job.
package recstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/asheshgoplani/quickcast/internal/logging"
)

var log = logging.ForComponent(logging.CompStore)

// SchemaVersion tracks the current database schema version.
// Bump this when adding migrations.
const SchemaVersion = 1

// EntryKind mirrors the clipboard capture type.
type EntryKind int

const (
	KindText EntryKind = iota
	KindImage
	KindUnknown
)

// EntryRow is one stored clipboard capture.
type EntryRow struct {
	ID        int64
	Content   string
	Timestamp time.Time
	Kind      EntryKind
	SizeBytes int64
	SourceApp string
	BlobRef   string
	Width     int
	Height    int
}

// Store wraps the SQLite database. Safe for concurrent use within one
// process; a single writer is enforced by the history layer, not here.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath. A corrupt database is
// treated as a cold start: the file is moved aside and recreated empty.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("recstore: mkdir: %w", err)
	}

	s, err := open(dbPath)
	if err == nil {
		return s, nil
	}

	// Cold start on corruption: preserve the bad file for inspection.
	log.Warn("recstore_corrupt_cold_start", "path", dbPath, "error", err.Error())
	_ = os.Rename(dbPath, dbPath+".corrupt")
	return open(dbPath)
}

func open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("recstore: open: %w", err)
	}

	// WAL mode: allows concurrent readers while writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("recstore: wal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("recstore: busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close checkpoints WAL and closes the database.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// migrate creates tables if they don't exist.
func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("recstore: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("recstore: create metadata: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			content    TEXT NOT NULL,
			ts         INTEGER NOT NULL,
			kind       INTEGER NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			source_app TEXT NOT NULL DEFAULT '',
			blob_ref   TEXT NOT NULL DEFAULT '',
			width      INTEGER NOT NULL DEFAULT 0,
			height     INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("recstore: create entries: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS recents (
			app_ref     TEXT PRIMARY KEY,
			launched_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("recstore: create recents: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id       TEXT PRIMARY KEY,
			trigger  TEXT NOT NULL,
			content  TEXT NOT NULL,
			enabled  INTEGER NOT NULL DEFAULT 1,
			category TEXT NOT NULL DEFAULT 'General'
		)
	`); err != nil {
		return fmt.Errorf("recstore: create snippets: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)",
		fmt.Sprintf("%d", SchemaVersion),
	); err != nil {
		return fmt.Errorf("recstore: set schema version: %w", err)
	}

	return tx.Commit()
}

// Add appends a record and returns its id. Read order is newest-first,
// so the new record becomes index 0.
func (s *Store) Add(e *EntryRow) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO entries (content, ts, kind, size_bytes, source_app, blob_ref, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Content, e.Timestamp.UnixMilli(), int(e.Kind), e.SizeBytes, e.SourceApp, e.BlobRef, e.Width, e.Height)
	if err != nil {
		return 0, fmt.Errorf("recstore: add: %w", err)
	}
	return res.LastInsertId()
}

// GetRange returns up to limit records starting at offset, newest first.
func (s *Store) GetRange(offset, limit int) ([]*EntryRow, error) {
	rows, err := s.db.Query(`
		SELECT id, content, ts, kind, size_bytes, source_app, blob_ref, width, height
		FROM entries ORDER BY id DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("recstore: get range: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetAll returns every record, newest first.
func (s *Store) GetAll() ([]*EntryRow, error) {
	rows, err := s.db.Query(`
		SELECT id, content, ts, kind, size_bytes, source_app, blob_ref, width, height
		FROM entries ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("recstore: get all: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*EntryRow, error) {
	var out []*EntryRow
	for rows.Next() {
		e := &EntryRow{}
		var ts int64
		var kind int
		if err := rows.Scan(&e.ID, &e.Content, &ts, &kind, &e.SizeBytes,
			&e.SourceApp, &e.BlobRef, &e.Width, &e.Height); err != nil {
			return nil, fmt.Errorf("recstore: scan: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		e.Kind = EntryKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes a record by id. Returns the removed row, or nil if the
// id does not exist.
func (s *Store) Remove(id int64) (*EntryRow, error) {
	rows, err := s.db.Query(`
		SELECT id, content, ts, kind, size_bytes, source_app, blob_ref, width, height
		FROM entries WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("recstore: remove lookup: %w", err)
	}
	found, err := scanEntries(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	if _, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("recstore: remove: %w", err)
	}
	return found[0], nil
}

// Len reports the number of stored records.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("recstore: len: %w", err)
	}
	return n, nil
}

// Trim drops the oldest records down to max and returns the removed rows
// (for blob cleanup by the caller). No-op when already within bounds.
func (s *Store) Trim(max int) ([]*EntryRow, error) {
	n, err := s.Len()
	if err != nil {
		return nil, err
	}
	if n <= max {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, content, ts, kind, size_bytes, source_app, blob_ref, width, height
		FROM entries ORDER BY id ASC LIMIT ?
	`, n-max)
	if err != nil {
		return nil, fmt.Errorf("recstore: trim select: %w", err)
	}
	removed, err := scanEntries(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("recstore: trim begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, e := range removed {
		if _, err := tx.Exec("DELETE FROM entries WHERE id = ?", e.ID); err != nil {
			return nil, fmt.Errorf("recstore: trim delete: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}

// Clear deletes every record and returns the removed rows.
func (s *Store) Clear() ([]*EntryRow, error) {
	removed, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec("DELETE FROM entries"); err != nil {
		return nil, fmt.Errorf("recstore: clear: %w", err)
	}
	return removed, nil
}

// --- Recent launches ---

// TouchRecent records an app launch now. Existing entries are refreshed.
func (s *Store) TouchRecent(appRef string) error {
	_, err := s.db.Exec(`
		INSERT INTO recents (app_ref, launched_at) VALUES (?, ?)
		ON CONFLICT(app_ref) DO UPDATE SET launched_at = excluded.launched_at
	`, appRef, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recstore: touch recent: %w", err)
	}
	return nil
}

// Recents returns up to max app refs, most recently launched first.
func (s *Store) Recents(max int) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT app_ref FROM recents ORDER BY launched_at DESC LIMIT ?", max)
	if err != nil {
		return nil, fmt.Errorf("recstore: recents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("recstore: recents scan: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// PruneRecents bounds the recents table to max rows.
func (s *Store) PruneRecents(max int) error {
	_, err := s.db.Exec(`
		DELETE FROM recents WHERE app_ref NOT IN (
			SELECT app_ref FROM recents ORDER BY launched_at DESC LIMIT ?
		)
	`, max)
	if err != nil {
		return fmt.Errorf("recstore: prune recents: %w", err)
	}
	return nil
}

// SnippetRow is one stored text-expansion snippet.
type SnippetRow struct {
	ID       string
	Trigger  string
	Content  string
	Enabled  bool
	Category string
}

// AddSnippet inserts or replaces a snippet by id.
func (s *Store) AddSnippet(sn *SnippetRow) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO snippets (id, trigger, content, enabled, category)
		VALUES (?, ?, ?, ?, ?)
	`, sn.ID, sn.Trigger, sn.Content, boolToInt(sn.Enabled), sn.Category)
	if err != nil {
		return fmt.Errorf("recstore: add snippet: %w", err)
	}
	return nil
}

// Snippets returns all snippets ordered by trigger.
func (s *Store) Snippets() ([]*SnippetRow, error) {
	rows, err := s.db.Query(
		"SELECT id, trigger, content, enabled, category FROM snippets ORDER BY trigger ASC")
	if err != nil {
		return nil, fmt.Errorf("recstore: snippets: %w", err)
	}
	defer rows.Close()

	var out []*SnippetRow
	for rows.Next() {
		sn := &SnippetRow{}
		var enabled int
		if err := rows.Scan(&sn.ID, &sn.Trigger, &sn.Content, &enabled, &sn.Category); err != nil {
			return nil, fmt.Errorf("recstore: snippet scan: %w", err)
		}
		sn.Enabled = enabled != 0
		out = append(out, sn)
	}
	return out, rows.Err()
}

// RemoveSnippet deletes a snippet by id. Reports whether a row existed.
func (s *Store) RemoveSnippet(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM snippets WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("recstore: remove snippet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recstore: remove snippet: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
