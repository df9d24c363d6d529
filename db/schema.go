package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database. dbType is "sqlite" or
// "postgres"; for sqlite the URL is a file path and the DSN enables WAL,
// foreign keys and a busy timeout so concurrent writers queue instead of
// failing immediately.
func Open(dbType, url string) (*sql.DB, error) {
	switch dbType {
	case "sqlite":
		dsn := url + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
		conn, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite db: %w", err)
		}
		return conn, nil
	case "postgres":
		conn, err := sql.Open("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("open postgres db: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", dbType)
	}
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure
// from either backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

const schema = `
-- Assembly (exactly one row per run)
CREATE TABLE IF NOT EXISTS assembly (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    location TEXT,
    notes TEXT,
    status TEXT NOT NULL DEFAULT 'idle' CHECK (status IN ('idle', 'started', 'closed')),
    current_item INTEGER,
    started_at TIMESTAMP,
    ended_at TIMESTAMP
);

-- Agenda items
CREATE TABLE IF NOT EXISTS item (
    assembly_id TEXT NOT NULL REFERENCES assembly(id),
    order_no INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    quorum_type TEXT NOT NULL DEFAULT 'simple' CHECK (quorum_type IN ('simple', 'qualified')),
    quorum_value REAL,
    compute_mode TEXT NOT NULL DEFAULT 'uniform' CHECK (compute_mode IN ('uniform', 'fractional')),
    vote_kind TEXT NOT NULL DEFAULT 'binary' CHECK (vote_kind IN ('binary', 'multi')),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'open', 'closed', 'void')),
    voting_started_at TIMESTAMP,
    voting_ended_at TIMESTAMP,
    results_json TEXT,
    PRIMARY KEY (assembly_id, order_no)
);

-- Checked-in attendees. The UNIQUE (block, unit_id) is the home-unit half
-- of the no-double-count invariant.
CREATE TABLE IF NOT EXISTS voter (
    handle TEXT PRIMARY KEY,
    block TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    fraction REAL NOT NULL,
    login_status TEXT NOT NULL DEFAULT 'pending' CHECK (login_status IN ('pending', 'logged_in')),
    login_at TIMESTAMP,
    checked_in_at TIMESTAMP NOT NULL,
    UNIQUE (block, unit_id)
);

-- Proxy / extra-seat links. UNIQUE (block, unit_id) is the linked half of
-- the no-double-count invariant: a unit delegates to at most one attendee.
CREATE TABLE IF NOT EXISTS linked_unit (
    voter_handle TEXT NOT NULL REFERENCES voter(handle),
    block TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    fraction REAL NOT NULL,
    relation TEXT NOT NULL CHECK (relation IN ('proxy', 'extra_seat', 'other')),
    position INTEGER NOT NULL,
    PRIMARY KEY (voter_handle, position),
    UNIQUE (block, unit_id)
);

-- Vote ledger: append only, never updated or deleted.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    assembly_id TEXT NOT NULL,
    item_order_no INTEGER NOT NULL,
    voter_handle TEXT NOT NULL,
    unit_block TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    choice INTEGER NOT NULL,
    weight REAL NOT NULL CHECK (weight >= 0),
    created_at TIMESTAMP NOT NULL,
    UNIQUE (assembly_id, item_order_no, voter_handle, unit_block, unit_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_item ON vote(assembly_id, item_order_no);
CREATE INDEX IF NOT EXISTS idx_vote_voter ON vote(assembly_id, item_order_no, voter_handle);
`
