// Package store provides SQLite-backed persistence for the tatl ledger.
// It exposes primitive reads and writes over tasks, sessions, the queue
// ordering, external-waiting records, and the mutation journal. No
// business rules live here; invariant enforcement happens in the ledger
// package, and every multi-step mutation runs through WithTx.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides access to the tatl SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the database at path and runs
// pending migrations. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL mode for concurrent reads alongside the single writer
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending schema migrations, tracked in schema_version.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Ledger},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Ledger = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL,
	project TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	lifecycle TEXT NOT NULL DEFAULT 'open',
	due_ts INTEGER,
	scheduled_ts INTEGER,
	wait_ts INTEGER,
	alloc_seconds INTEGER NOT NULL DEFAULT 0,
	recurrence TEXT NOT NULL DEFAULT '',
	created_ts INTEGER NOT NULL,
	modified_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id INTEGER NOT NULL REFERENCES tasks(id),
	start_ts INTEGER NOT NULL,
	end_ts INTEGER
);

CREATE TABLE IF NOT EXISTS queue (
	position INTEGER PRIMARY KEY,
	task_id INTEGER NOT NULL UNIQUE REFERENCES tasks(id)
);

CREATE TABLE IF NOT EXISTS external_waits (
	task_id INTEGER PRIMARY KEY REFERENCES tasks(id),
	sent_ts INTEGER NOT NULL,
	collected_ts INTEGER
);

CREATE TABLE IF NOT EXISTS journal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	op TEXT NOT NULL,
	task_id INTEGER,
	detail TEXT NOT NULL DEFAULT '',
	inputs_hash TEXT NOT NULL DEFAULT '',
	ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_task_id ON sessions(task_id);
CREATE INDEX IF NOT EXISTS idx_sessions_end_ts ON sessions(end_ts);
CREATE INDEX IF NOT EXISTS idx_tasks_lifecycle ON tasks(lifecycle);
`

// Tx wraps a single database transaction. All primitives hang off Tx so
// multi-step mutations commit or roll back as one unit.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction. Any error from fn rolls the
// whole transaction back.
func (s *Store) WithTx(fn func(tx *Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- Epoch helpers ---

// Timestamps are persisted as integer epoch seconds, always UTC.

func toEpoch(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromEpoch(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func nullEpoch(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toEpoch(*t), Valid: true}
}

func epochPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromEpoch(n.Int64)
	return &t
}
