package domain

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrNotSelect        = errors.New("only SELECT statements are allowed")
	ErrForbiddenKeyword = errors.New("forbidden keyword")
	ErrDangerousPattern = errors.New("dangerous pattern")
	ErrTableNotFound    = errors.New("table not found")
	ErrQueryFailed      = errors.New("query execution failed")
)

// PatternRule pairs a stable identifier with a compiled pattern. Rules are
// matched against the uppercased query text in declaration order, and the
// identifier of the first matching rule is surfaced in the rejection error.
type PatternRule struct {
	ID      string
	Pattern *regexp.Regexp
}

// forbiddenKeywords are matched as plain substrings of the uppercased query.
// This is intentionally over-broad: a column literally named "created_at"
// trips on CREATE and gets rejected. Relaxing the match to word boundaries
// changes the security posture, so don't.
var forbiddenKeywords = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "ALTER",
	"CREATE", "TRUNCATE", "REPLACE", "PRAGMA",
	"ATTACH", "DETACH", "VACUUM",
}

// block_comment and union_select use `.`, which does not cross newlines:
// `UNION\nSELECT` passes this layer. Known lexical blind spot, kept as is;
// widening the patterns to multiline is a posture change, not a fix.
var dangerousPatterns = []PatternRule{
	{ID: "stacked_statement", Pattern: regexp.MustCompile(`;\s*(DROP|DELETE|INSERT|UPDATE)`)},
	{ID: "line_comment", Pattern: regexp.MustCompile(`--`)},
	{ID: "block_comment", Pattern: regexp.MustCompile(`/\*.*\*/`)},
	{ID: "union_select", Pattern: regexp.MustCompile(`UNION.*SELECT`)},
}

// ForbiddenKeywords returns a copy of the keyword blacklist so tests can
// enumerate every rule without being able to mutate the live set.
func ForbiddenKeywords() []string {
	return slices.Clone(forbiddenKeywords)
}

// DangerousPatterns returns a copy of the ordered pattern rules.
func DangerousPatterns() []PatternRule {
	return slices.Clone(dangerousPatterns)
}

// SafetyValidator classifies a caller-supplied SQL string as safe to execute
// or not, using three ordered layers that short-circuit on first failure:
//
//  1. statement-type whitelist — the query must begin with SELECT
//  2. keyword blacklist — no DDL/DML keyword anywhere in the text
//  3. pattern blacklist — no stacked statements, comments, or UNION chains
//
// Layer 1 is the cheapest check and catches nearly every non-read attempt,
// so it runs first. The validator is purely lexical: it does not parse SQL,
// and a query it approves can still be rejected by the engine.
type SafetyValidator struct{}

func NewSafetyValidator() *SafetyValidator {
	return &SafetyValidator{}
}

// Validate returns nil when the query passes every layer. The returned error
// wraps ErrNotSelect, ErrForbiddenKeyword, or ErrDangerousPattern and names
// the offending keyword or rule, so callers can surface the exact reason.
// Uppercasing is for comparison only; the original text is what executes.
func (v *SafetyValidator) Validate(sql string) error {
	upper := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(upper, "SELECT") {
		return ErrNotSelect
	}

	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("%w: %s", ErrForbiddenKeyword, kw)
		}
	}

	for _, rule := range dangerousPatterns {
		if rule.Pattern.MatchString(upper) {
			return fmt.Errorf("%w: %s", ErrDangerousPattern, rule.ID)
		}
	}

	return nil
}
