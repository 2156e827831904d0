package port

import (
	"context"
	"time"
)

// QueryResult packages the rows and metadata produced by one successful
// query. It is owned by the caller once returned and never mutated by the
// gateway afterwards (masking happens before it leaves the service layer).
type QueryResult struct {
	SQL         string           `json:"sql"`
	Results     []map[string]any `json:"results"`
	ColumnNames []string         `json:"column_names"`
	RowCount    int              `json:"row_count"`
	ExecutedAt  time.Time        `json:"executed_at"`
}

// QueryExecutor runs an already-validated SQL statement against the store.
// Implementations must release any acquired connection on every exit path
// and must not retry failed queries.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) (*QueryResult, error)
}
