package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/cohort/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cohort_imports (
	slot        TEXT NOT NULL PRIMARY KEY,
	import_id   TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	imported_at TEXT NOT NULL,
	payload     BLOB NOT NULL,
	updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

const sqliteUpsert = `
INSERT INTO cohort_imports (slot, import_id, file_name, imported_at, payload)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (slot) DO UPDATE SET
	import_id   = excluded.import_id,
	file_name   = excluded.file_name,
	imported_at = excluded.imported_at,
	payload     = excluded.payload,
	updated_at  = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

const sqliteSelect = `SELECT payload FROM cohort_imports WHERE slot = ?`

// sqlitePragmas are appended to DSNs that carry no query string.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLite stores the last import in a local database file. It suits the CLI
// and single-instance deployments without a database server.
type SQLite struct {
	db   *sql.DB
	slot string
}

// OpenSQLite opens (and creates) the database at opts.URL, a file path or
// a file: URI.
func OpenSQLite(ctx context.Context, opts Options) (*SQLite, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: sqlite store needs a file path", core.ErrInvalidArgument)
	}

	db, err := sql.Open("sqlite", sqliteDSN(opts.URL))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cohort_imports: %w", err)
	}

	return NewSQLite(db, opts.Slot), nil
}

// NewSQLite wraps an existing handle. The table must already exist.
func NewSQLite(db *sql.DB, slot string) *SQLite {
	if slot == "" {
		slot = core.LastImportKey
	}
	return &SQLite{db: db, slot: slot}
}

func sqliteDSN(path string) string {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?" + sqlitePragmas
}

func (s *SQLite) SaveLastImport(ctx context.Context, snap core.Snapshot) error {
	payload, err := core.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, sqliteUpsert,
		s.slot, snap.ID, snap.FileName, snap.ImportedAt.UTC().Format(time.RFC3339Nano), payload,
	); err != nil {
		return fmt.Errorf("upsert %s: %w", s.slot, err)
	}
	return nil
}

func (s *SQLite) LoadLastImport(ctx context.Context) (*core.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, sqliteSelect, s.slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoImport
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.slot, err)
	}
	return core.DecodeSnapshot(payload)
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
