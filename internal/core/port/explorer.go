package port

import "context"

// TableInfo is one entry in the table catalog listing.
type TableInfo struct {
	Name        string `json:"table_name"`
	CreationSQL string `json:"creation_sql"`
	Description string `json:"description,omitempty"` // filled by the policy layer
}

// ColumnInfo describes a single column as reported by engine introspection.
type ColumnInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	NotNull      bool   `json:"not_null"`
	DefaultValue any    `json:"default_value"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	Description  string `json:"description,omitempty"`
}

// TableSchema is the full introspection result for one table: column
// descriptors, a bounded sample of rows, and an exact record count.
// It is recomputed on every call; nothing is cached.
type TableSchema struct {
	TableName   string           `json:"table_name"`
	Description string           `json:"description,omitempty"`
	Columns     []ColumnInfo     `json:"columns"`
	RecordCount int64            `json:"record_count"`
	SampleData  []map[string]any `json:"sample_data"`
}

// SchemaExplorer reads catalog metadata through fixed, engine-controlled
// introspection statements — never caller-supplied text, which is why this
// path does not go through the query validator.
type SchemaExplorer interface {
	ListTables(ctx context.Context) ([]TableInfo, error)
	GetTableSchema(ctx context.Context, tableName string) (*TableSchema, error)
}
