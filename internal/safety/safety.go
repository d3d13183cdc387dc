// Package safety holds the gate applied to generated SQL before execution.
//
// The check is intentionally lexical and weak. A candidate passes when its
// trimmed, upper-cased text starts with SELECT and contains a semicolon.
// Known gaps:
//   - a trailing second statement passes ("SELECT 1; DROP TABLE t;")
//   - comments and string literals are not parsed
//   - read-only forms that do not start with SELECT ("WITH ...") are rejected
//   - a SELECT without a terminating semicolon is rejected
//
// The read-only connection pool is what actually prevents writes.
package safety

import "strings"

// IsSafe reports whether candidate passes the gate. It never mutates input.
func IsSafe(candidate string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(candidate))
	return strings.HasPrefix(normalized, "SELECT") && strings.Contains(normalized, ";")
}
