package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/guillermoBallester/narrows/internal/adapter/sqlite"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	active INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	total REAL NOT NULL
);
INSERT INTO users (id, name, email) VALUES
	(1, 'alice', 'alice@example.com'),
	(2, 'bob', 'bob@example.com'),
	(3, 'carol', NULL),
	(4, 'dave', 'dave@example.com'),
	(5, 'erin', NULL);
INSERT INTO orders (id, user_id, total) VALUES
	(1, 1, 9.99),
	(2, 2, 24.50);
`

// setupTestDB seeds a file-backed database and opens it with zero idle
// connections, matching the gateway's per-call connection behavior so
// Stats().OpenConnections drops back to zero after each operation.
func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	return setupTestDBWithSchema(t, testSchema)
}

func setupTestDBWithSchema(t *testing.T, schema string) *sqlite.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gateway.db")

	seed, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	if schema != "" {
		_, err = seed.Exec(schema)
		require.NoError(t, err)
	} else {
		// Touch the file so an empty database exists on disk.
		require.NoError(t, seed.Ping())
	}
	require.NoError(t, seed.Close())

	db, err := sqlite.Open(context.Background(), path, sqlite.PoolConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    0,
		ConnMaxLifetime: 30 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	return db
}
