package retrieval

import (
	"strings"
	"unicode/utf8"
)

// MaxContentChars bounds the retrieved text handed to the generation model.
const MaxContentChars = 15000

// FlattenContent joins the chunk lists in query order. Each non-empty group is
// newline-joined and newline-terminated. The result is cut to limit characters;
// a non-positive limit disables the cut.
func FlattenContent(order []string, chunks map[string][]string, limit int) string {
	var b strings.Builder
	for _, q := range order {
		docs := chunks[q]
		if len(docs) == 0 {
			continue
		}
		b.WriteString(strings.Join(docs, "\n"))
		b.WriteString("\n")
	}
	return Truncate(b.String(), limit)
}

// Truncate returns the first limit characters (runes) of s. It never pads.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
