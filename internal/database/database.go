package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// New opens the SQLite database at path and verifies the connection.
// The pool is capped at a single connection since SQLite allows one writer
// at a time and vote transactions must not fail with SQLITE_BUSY.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		age INTEGER NOT NULL DEFAULT 0,
		address TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'voter' CHECK (role IN ('voter', 'admin')),
		is_voted INTEGER NOT NULL DEFAULT 0,
		voted_for TEXT,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		party TEXT NOT NULL,
		age INTEGER NOT NULL DEFAULT 0,
		vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per cast vote. The unique user_id enforces a single vote system-wide.
	CREATE TABLE IF NOT EXISTS candidate_votes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL UNIQUE REFERENCES users(id),
		voted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_candidate_votes_candidate ON candidate_votes(candidate_id, seq);

	-- Activity log. candidate_id is kept after the candidate is deleted.
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		candidate_id TEXT,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(sqlStmt); err != nil {
		return err
	}
	// Databases created before users.voted_for existed.
	return addColumnIfMissing(db, "users", "voted_for", "TEXT")
}

func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", table))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}
