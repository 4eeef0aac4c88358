// Package framelog provides the durable, append-only frame log.
//
// The log is backed by SQLite in WAL mode: one writer, many concurrent
// readers, committed before Append returns. Reads are finite snapshots
// resumable by cursor; liveness comes from re-reading on an interval
// (see the broadcast package).
package framelog

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/stash/internal/frame"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on frames.topic
const currentSchemaVersion = 1

const dbFileName = "frames.db"

var (
	// ErrNotFound is returned when no frame exists for an id.
	ErrNotFound = errors.New("frame not found")
	// ErrCorrupt is returned when a persisted record cannot be
	// decoded. Distinct from ErrNotFound: the row exists but is
	// structurally invalid.
	ErrCorrupt = errors.New("frame record corrupt")
)

// Log is a handle to the durable frame log rooted at a directory.
type Log struct {
	db     *sql.DB
	minter *frame.Minter
}

// Open creates or opens the frame log rooted at dir.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// The id minter is seeded from the highest persisted id, so ids stay
// strictly increasing across restarts. Safe to call multiple times;
// safe for one concurrent writer and many readers per path.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open frame log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to frame log: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	var last sql.NullString
	if err := db.QueryRow(`SELECT MAX(id) FROM frames`).Scan(&last); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed minter: %w", err)
	}

	minter, err := frame.NewMinterAfter(last.String)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: highest persisted id %q: %v", ErrCorrupt, last.String, err)
	}

	return &Log{db: db, minter: minter}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Log methods when available.
func (l *Log) DB() *sql.DB {
	return l.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_frames_topic ON frames(topic)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}
