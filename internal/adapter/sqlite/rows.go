package sqlite

import (
	"database/sql"
	"fmt"
)

// rowsToMaps drains rows into name-keyed maps, stopping after maxRows when
// maxRows > 0. It returns the cursor's ordered column names alongside the
// rows so callers keep the metadata even for empty result sets.
func rowsToMaps(rows *sql.Rows, maxRows int) ([]map[string]any, []string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("reading column names: %w", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		if maxRows > 0 && len(results) >= maxRows {
			break
		}

		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating rows: %w", err)
	}

	return results, cols, nil
}
