package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// MaskType represents a column masking strategy applied to result rows and
// schema sample data before they leave the gateway.
type MaskType string

const (
	MaskRedact  MaskType = "redact"
	MaskHash    MaskType = "hash"
	MaskPartial MaskType = "partial"
	MaskNull    MaskType = "null"
)

// Valid reports whether the MaskType is a recognised strategy. The zero
// value "" is valid and means "no mask".
func (m MaskType) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskPartial, MaskNull, "":
		return true
	}
	return false
}

// ApplyMask transforms a value according to the mask type. Masked values may
// change type (hash and partial always yield strings). MaskNull returns nil,
// indistinguishable from SQL NULL on the wire.
func ApplyMask(value any, maskType MaskType) any {
	if value == nil {
		return nil
	}

	switch maskType {
	case MaskRedact:
		return "***"
	case MaskHash:
		h := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
		return fmt.Sprintf("%x", h)
	case MaskPartial:
		return maskPartial(fmt.Sprintf("%v", value))
	case MaskNull:
		return nil
	default:
		return value
	}
}

// maskPartial reveals only the last 4 characters. Short values keep their
// full text behind a *** prefix rather than leaking their length.
func maskPartial(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return "***" + s
	}
	hidden := len(runes) - 4
	return strings.Repeat("*", hidden) + string(runes[hidden:])
}

// MaskRows applies column masks to result rows in place. Matching is by
// column name only; a mask for "email" hits every column named email
// regardless of which table it came from.
func MaskRows(rows []map[string]any, masks map[string]MaskType) {
	if len(masks) == 0 {
		return
	}
	for _, row := range rows {
		for col, mask := range masks {
			if val, ok := row[col]; ok {
				row[col] = ApplyMask(val, mask)
			}
		}
	}
}
