package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dataSourceName)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
//
// Two constraints here carry the core correctness properties of the system:
// the UNIQUE index on votes(user_id, poll_id) is the authoritative
// one-vote-per-user-per-poll guard, and poll_options cascades on poll
// deletion while votes intentionally has no foreign key to polls, so
// deleting a poll leaves its ledger rows behind.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS polls (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		creator_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'closed')),
		start_date DATETIME NOT NULL,
		end_date DATETIME,
		total_votes INTEGER NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_polls_creator ON polls(creator_id);
	CREATE INDEX IF NOT EXISTS idx_polls_status ON polls(status);

	CREATE TABLE IF NOT EXISTS poll_options (
		id TEXT NOT NULL PRIMARY KEY,
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0)
	);

	CREATE INDEX IF NOT EXISTS idx_poll_options_poll ON poll_options(poll_id);

	CREATE TABLE IF NOT EXISTS votes (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		poll_id TEXT NOT NULL,
		selected_option TEXT NOT NULL,
		voted_at DATETIME NOT NULL,
		UNIQUE (user_id, poll_id)
	);

	CREATE INDEX IF NOT EXISTS idx_votes_poll ON votes(poll_id);
	CREATE INDEX IF NOT EXISTS idx_votes_user ON votes(user_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// Health reports whether the database connection is usable.
func Health(db *sql.DB) error {
	return db.Ping()
}
