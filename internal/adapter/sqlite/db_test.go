package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "plain path",
			path: "/data/shop.db",
			want: "file:/data/shop.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "file scheme preserved",
			path: "file:/data/shop.db",
			want: "file:/data/shop.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "existing query params appended",
			path: "file:/data/shop.db?mode=ro",
			want: "file:/data/shop.db?mode=ro&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dsn(tt.path))
		})
	}
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fk.db")
	db, err := Open(context.Background(), path, PoolConfig{MaxOpenConns: 2})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	var enabled int
	require.NoError(t, conn.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestOpen_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "/nonexistent-dir/sub/shop.db", PoolConfig{MaxOpenConns: 1})
	require.Error(t, err)
}

func TestConn_ScopedRelease(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "probe.db")
	db, err := Open(context.Background(), path, PoolConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    0,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, db.Stats().OpenConnections)

	require.NoError(t, conn.Close())
	assert.Equal(t, 0, db.Stats().OpenConnections, "zero idle conns means release closes for real")
}
