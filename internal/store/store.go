// Package store provides a SQLite-backed log of sandbox decisions.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	created   INTEGER NOT NULL,
	session   TEXT NOT NULL DEFAULT '',
	root      TEXT NOT NULL,
	command   TEXT NOT NULL,
	decision  TEXT NOT NULL,
	reason    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created);
`

// Entry is one recorded decision.
type Entry struct {
	Time     time.Time
	Session  string
	Root     string
	Command  string
	Decision string
	Reason   string
}

// Audit is a SQLite-backed decision log.
type Audit struct {
	mu        sync.Mutex
	db        *sql.DB
	retention time.Duration
}

// Open creates or opens an audit database at the given path. Entries older
// than retention are purged on open; zero keeps everything.
func Open(dbPath string, retention time.Duration) (*Audit, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	// Hooks for parallel tool calls can write concurrently from separate
	// processes.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	a := &Audit{db: db, retention: retention}
	a.purgeStale()
	return a, nil
}

// Close closes the database.
func (a *Audit) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}

// Record stores a decision. A zero Time is replaced with the current time.
// No-op on nil receiver.
func (a *Audit) Record(e Entry) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := a.db.Exec(
		"INSERT INTO decisions (created, session, root, command, decision, reason) VALUES (?, ?, ?, ?, ?, ?)",
		e.Time.UnixNano(), e.Session, e.Root, e.Command, e.Decision, e.Reason,
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns everything. Safe to call on a nil receiver (returns nothing).
func (a *Audit) Recent(limit int) ([]Entry, error) {
	if a == nil {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := a.db.Query(
		"SELECT created, session, root, command, decision, reason FROM decisions ORDER BY created DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&created, &e.Session, &e.Root, &e.Command, &e.Decision, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Time = time.Unix(0, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// purgeStale removes entries older than the retention window.
func (a *Audit) purgeStale() {
	if a.retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-a.retention).UnixNano()
	res, err := a.db.Exec("DELETE FROM decisions WHERE created <= ?", cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("failed to purge stale decisions")
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Info().Int64("deleted", n).Msg("purged stale decisions")
	}
}
