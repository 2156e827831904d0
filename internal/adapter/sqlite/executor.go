package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/guillermoBallester/narrows/internal/core/domain"
	"github.com/guillermoBallester/narrows/internal/core/port"
)

// Executor runs validator-approved SELECT statements. The query text is
// executed exactly as supplied — the row cap is applied while scanning so
// the cursor's column names are the query's own.
type Executor struct {
	db           *DB
	maxRows      int
	queryTimeout time.Duration
}

func NewExecutor(db *DB, maxRows int, queryTimeout time.Duration) *Executor {
	return &Executor{
		db:           db,
		maxRows:      maxRows,
		queryTimeout: queryTimeout,
	}
}

// Execute runs the query on a dedicated connection and packages rows,
// column metadata, row count, and an execution timestamp. Engine rejections
// surface as domain.ErrQueryFailed with the engine's message; the
// connection is released on every path. Failed queries are never retried.
func (e *Executor) Execute(ctx context.Context, query string) (*port.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	defer rows.Close()

	results, cols, err := rowsToMaps(rows, e.maxRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	if cols == nil {
		cols = []string{}
	}

	return &port.QueryResult{
		SQL:         query,
		Results:     results,
		ColumnNames: cols,
		RowCount:    len(results),
		ExecutedAt:  time.Now().UTC(),
	}, nil
}
