// Package sqlite adapts the gateway's ports to a SQLite database reached
// through database/sql and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// PoolConfig bounds the database/sql connection pool. The zero value of
// MaxIdleConns reproduces the gateway's original per-call behavior: every
// operation opens a fresh connection and closes it on release.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps the shared database handle. Adapters acquire a dedicated
// connection per operation via Conn and release it on every exit path.
type DB struct {
	db *sql.DB
}

// Open creates the database handle and verifies connectivity. Foreign-key
// enforcement rides on the DSN so it applies to every connection the pool
// opens, not just the first.
func Open(ctx context.Context, path string, pool PoolConfig) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database (10s timeout): %w", err)
	}

	return &DB{db: db}, nil
}

// Conn acquires a single connection for one operation. Callers must Close
// it before returning, including on error paths.
func (d *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return conn, nil
}

// Stats exposes pool counters; tests use OpenConnections to verify that
// every operation returns its connection.
func (d *DB) Stats() sql.DBStats {
	return d.db.Stats()
}

func (d *DB) Close() error {
	return d.db.Close()
}

// dsn builds the driver DSN. PRAGMAs are per-connection in SQLite, so they
// must be part of the DSN rather than executed once after open.
func dsn(path string) string {
	const params = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params
}
