// Package ledger keeps a SQLite history of completed downloads.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - -tags cgo_sqlite (CGO_ENABLED=1): mattn/go-sqlite3
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	accession  TEXT NOT NULL,
	molecule   TEXT NOT NULL,
	format     TEXT NOT NULL,
	url        TEXT NOT NULL,
	path       TEXT NOT NULL,
	bytes      INTEGER NOT NULL,
	blake3     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS downloads_accession ON downloads (accession);
`

// Entry is one completed download.
type Entry struct {
	ID        int64
	RunID     string
	Accession string
	Molecule  string
	Format    string
	URL       string
	Path      string
	Bytes     int64
	Digest    string
	CreatedAt time.Time
}

// Ledger is an open download history.
type Ledger struct {
	db   *sql.DB
	path string
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open ledger", path, err)
	}
	// SQLite allows one writer; a single connection also keeps
	// ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialize ledger", path, err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores e. A zero CreatedAt is set to the current time.
func (l *Ledger) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO downloads (run_id, accession, molecule, format, url, path, bytes, blake3, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Accession, e.Molecule, e.Format, e.URL, e.Path, e.Bytes, e.Digest,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, errors.NewIO("write ledger", l.path, err)
	}
	return res.LastInsertId()
}

// ListOptions filters List.
type ListOptions struct {
	Accession string // only entries for this accession
	Limit     int    // at most this many entries; zero means all
}

// List returns entries, newest first.
func (l *Ledger) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT id, run_id, accession, molecule, format, url, path, bytes, blake3, created_at
		FROM downloads`
	var args []any
	if opts.Accession != "" {
		query += ` WHERE accession = ?`
		args = append(args, opts.Accession)
	}
	query += ` ORDER BY id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewIO("read ledger", l.path, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Accession, &e.Molecule, &e.Format,
			&e.URL, &e.Path, &e.Bytes, &e.Digest, &created); err != nil {
			return nil, errors.NewIO("read ledger", l.path, err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("read ledger", l.path, err)
	}
	return entries, nil
}
