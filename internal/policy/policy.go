// Package policy loads operator-controlled YAML that enriches schema
// responses with business descriptions and declares column-level masks
// applied to query results and sample rows.
package policy

import (
	"fmt"

	"github.com/guillermoBallester/narrows/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Policy holds operator-controlled configuration loaded from a YAML file.
type Policy struct {
	Context ContextConfig `yaml:"context"`
}

// ContextConfig maps table names to business descriptions that are merged
// into tool responses. SQLite has a single table namespace, so keys are
// bare table names.
type ContextConfig struct {
	Tables map[string]TableContext `yaml:"tables"`
}

// TableContext provides a description and masking rules for a table and its columns.
type TableContext struct {
	Description string                   `yaml:"description"`
	Columns     map[string]ColumnContext `yaml:"columns"`
}

// ColumnContext holds a column's business description and optional mask directive.
type ColumnContext struct {
	Description string          `yaml:"description"`
	Mask        domain.MaskType `yaml:"mask,omitempty"`
}

// UnmarshalYAML supports both the struct format and a plain-string shorthand:
//
//	columns:
//	  email: "User email"           # shorthand → ColumnContext{Description: "User email"}
//	  ssn:                          # struct with optional mask
//	    description: "SSN"
//	    mask: "redact"
func (cc *ColumnContext) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		cc.Description = value.Value
		return nil
	}
	// Decode as struct (avoid infinite recursion by using an alias type).
	type alias ColumnContext
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column context: %w", err)
	}
	*cc = ColumnContext(a)
	return nil
}

// ColumnMasks flattens the policy into the column-name → mask-type map the
// query service consumes. Matching is by column name only, so a mask on any
// table's "email" masks every result column named email.
func (p *Policy) ColumnMasks() map[string]domain.MaskType {
	masks := make(map[string]domain.MaskType)
	for _, tc := range p.Context.Tables {
		for col, cc := range tc.Columns {
			if cc.Mask != "" {
				masks[col] = cc.Mask
			}
		}
	}
	if len(masks) == 0 {
		return nil
	}
	return masks
}
