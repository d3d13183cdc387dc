package query

import (
	"errors"
	"strings"
)

var ErrMultipleStatements = errors.New("sql text holds more than one statement")

// countStatements counts the ";"-separated statements in text that have
// content other than whitespace and comments. Semicolons inside quoted
// strings, quoted identifiers, comments and dollar-quoted bodies do not
// separate statements. Unterminated quotes run to the end of the text.
func countStatements(text string) int {
	count := 0
	hasContent := false
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == ';':
			if hasContent {
				count++
			}
			hasContent = false
			i++
		case c == '-' && strings.HasPrefix(text[i:], "--"):
			i = skipPast(text, i+2, "\n")
		case c == '/' && strings.HasPrefix(text[i:], "/*"):
			i = skipPast(text, i+2, "*/")
		case c == '\'' || c == '"' || c == '`':
			hasContent = true
			i = skipPast(text, i+1, string(c))
		case c == '$':
			hasContent = true
			if tag, ok := dollarTag(text[i:]); ok {
				i = skipPast(text, i+len(tag), tag)
			} else {
				i++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		default:
			hasContent = true
			i++
		}
	}
	if hasContent {
		count++
	}
	return count
}

// skipPast returns the index just after the first terminator at or after
// from, or len(text) when there is none.
func skipPast(text string, from int, terminator string) int {
	if from >= len(text) {
		return len(text)
	}
	idx := strings.Index(text[from:], terminator)
	if idx < 0 {
		return len(text)
	}
	return from + idx + len(terminator)
}

// dollarTag matches a PostgreSQL dollar-quote opener such as "$$" or
// "$body$". Positional parameters like "$1" are not openers.
func dollarTag(text string) (string, bool) {
	for i := 1; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '$':
			return text[:i+1], true
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9' && i > 1:
		default:
			return "", false
		}
	}
	return "", false
}
