package policy

import (
	"context"

	"github.com/guillermoBallester/narrows/internal/core/domain"
	"github.com/guillermoBallester/narrows/internal/core/port"
)

// PolicyExplorer decorates a SchemaExplorer with policy enrichment: table
// and column descriptions are merged into responses, and column masks are
// applied to sample rows so schema introspection never leaks masked data.
type PolicyExplorer struct {
	inner  port.SchemaExplorer
	policy *Policy
	masks  map[string]domain.MaskType
}

// NewPolicyExplorer wraps an existing SchemaExplorer.
func NewPolicyExplorer(inner port.SchemaExplorer, pol *Policy) *PolicyExplorer {
	return &PolicyExplorer{
		inner:  inner,
		policy: pol,
		masks:  pol.ColumnMasks(),
	}
}

func (p *PolicyExplorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	tables, err := p.inner.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	for i, t := range tables {
		if tc, ok := p.policy.Context.Tables[t.Name]; ok {
			tables[i].Description = tc.Description
		}
	}
	return tables, nil
}

func (p *PolicyExplorer) GetTableSchema(ctx context.Context, tableName string) (*port.TableSchema, error) {
	schema, err := p.inner.GetTableSchema(ctx, tableName)
	if err != nil {
		return nil, err
	}

	if tc, ok := p.policy.Context.Tables[schema.TableName]; ok {
		schema.Description = tc.Description
		for i, col := range schema.Columns {
			if cc, ok := tc.Columns[col.Name]; ok {
				schema.Columns[i].Description = cc.Description
			}
		}
	}

	domain.MaskRows(schema.SampleData, p.masks)
	return schema, nil
}
