package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/guillermoBallester/narrows/internal/core/domain"
	"github.com/guillermoBallester/narrows/internal/core/port"
)

const (
	// Internal tables (sqlite_master, sqlite_sequence, ...) are excluded.
	queryListTables = `SELECT name, sql
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`

	queryTableExists = `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`

	// Sample size for GetTableSchema. Kept small on purpose: the sample is
	// orientation for query writing, not a data export.
	sampleRowLimit = 3
)

// Explorer reads catalog metadata. All statements here are fixed and
// engine-controlled; the only caller-supplied value is a table name, and
// it is only ever interpolated after the sqlite_master existence check.
type Explorer struct {
	db *DB
}

func NewExplorer(db *DB) *Explorer {
	return &Explorer{db: db}
}

// ListTables returns every user table with its creation statement, ordered
// by name.
func (e *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.QueryContext(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	tables := make([]port.TableInfo, 0)
	for rows.Next() {
		var t port.TableInfo
		var creationSQL sql.NullString
		if err := rows.Scan(&t.Name, &creationSQL); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		t.CreationSQL = creationSQL.String
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

// GetTableSchema returns column descriptors, a bounded row sample, and the
// exact record count for one table. The existence check runs first and is
// the gate that makes the identifier interpolation below safe — it must
// stay ahead of every statement that embeds the name.
func (e *Explorer) GetTableSchema(ctx context.Context, tableName string) (*port.TableSchema, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	var one int
	err = conn.QueryRowContext(ctx, queryTableExists, tableName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, tableName)
	}
	if err != nil {
		return nil, fmt.Errorf("checking table existence: %w", err)
	}

	schema := &port.TableSchema{TableName: tableName}

	schema.Columns, err = fetchColumns(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}

	schema.SampleData, err = fetchSampleRows(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}

	schema.RecordCount, err = fetchRecordCount(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}

	return schema, nil
}

func fetchColumns(ctx context.Context, conn *sql.Conn, tableName string) ([]port.ColumnInfo, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()

	columns := make([]port.ColumnInfo, 0)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column info: %w", err)
		}
		col := port.ColumnInfo{
			Name:         name,
			Type:         typ,
			NotNull:      notNull != 0,
			IsPrimaryKey: pk > 0,
		}
		if dflt.Valid {
			col.DefaultValue = dflt.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column info: %w", err)
	}
	return columns, nil
}

func fetchSampleRows(ctx context.Context, conn *sql.Conn, tableName string) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(tableName), sampleRowLimit)
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading sample rows: %w", err)
	}
	defer rows.Close()

	sample, _, err := rowsToMaps(rows, 0)
	if err != nil {
		return nil, fmt.Errorf("reading sample rows: %w", err)
	}
	return sample, nil
}

func fetchRecordCount(ctx context.Context, conn *sql.Conn, tableName string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(tableName))
	if err := conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// quoteIdent double-quotes an identifier, escaping embedded quotes. Used
// only for names already verified against sqlite_master.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
