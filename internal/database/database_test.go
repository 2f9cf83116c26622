package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndMigrate(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "voting.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// Migrations are idempotent.
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "candidates", "candidate_votes", "events"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "voting.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))

	_, err = db.Exec("INSERT INTO candidate_votes (candidate_id, user_id, voted_at) VALUES ('nope', 'nobody', CURRENT_TIMESTAMP)")
	assert.Error(t, err)
}

func TestMigrateAddsVotedForColumn(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "voting.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		age INTEGER NOT NULL DEFAULT 0,
		address TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'voter',
		is_voted INTEGER NOT NULL DEFAULT 0,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('users') WHERE name = 'voted_for'").Scan(&n))
	assert.Equal(t, 1, n)
}
