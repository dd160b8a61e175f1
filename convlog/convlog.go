// Package convlog persists a history of document conversions to SQLite
// so batch runs can be audited after the fact. Writes are asynchronous
// and never block the conversion path.
package convlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Schema for the conversions table. Applied by Open.
const Schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	duration_us INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_ts ON conversions(timestamp);
CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status);
`

// Entry is one recorded conversion attempt.
type Entry struct {
	Path       string
	Format     string
	Status     string
	Error      string
	DurationUs int64
	Timestamp  int64
}

// Open opens (creating if needed) the history database at path and
// returns a Store ready to record entries.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("convlog: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("convlog: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("convlog: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("convlog: schema: %w", err)
	}
	return newStore(db), nil
}
