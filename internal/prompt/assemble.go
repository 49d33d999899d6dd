// Package prompt fills summary templates with book metadata and retrieved content.
//
// Only the title, author and content placeholders are recognised, in both
// {{name}} and {name} form. Any other brace sequence is left as written.
package prompt

import (
	"strings"

	"booksum/internal/domain"
	"booksum/internal/retrieval"
)

// MaxContentChars is the hard bound on content placed into a prompt.
const MaxContentChars = retrieval.MaxContentChars

// Assemble substitutes metadata and content into template. Double-brace forms
// are resolved before single-brace ones so templates may mix both; each step
// operates on the output of the previous one.
func Assemble(template string, meta domain.BookMetadata, content string) string {
	out := template
	out = strings.ReplaceAll(out, "{{title}}", meta.Title)
	out = strings.ReplaceAll(out, "{{author}}", meta.Author)
	out = strings.ReplaceAll(out, "{title}", meta.Title)
	out = strings.ReplaceAll(out, "{author}", meta.Author)

	content = retrieval.Truncate(content, MaxContentChars)
	out = strings.ReplaceAll(out, "{{content}}", content)
	out = strings.ReplaceAll(out, "{content}", content)
	return out
}

// HasPlaceholders reports which of the recognised fields template references.
func HasPlaceholders(template string) (title, author, content bool) {
	has := func(name string) bool {
		return strings.Contains(template, "{"+name+"}")
	}
	return has("title"), has("author"), has("content")
}

// MissingPlaceholders lists the recognised fields template does not reference.
func MissingPlaceholders(template string) []string {
	title, author, content := HasPlaceholders(template)
	var missing []string
	for _, f := range []struct {
		name string
		ok   bool
	}{{"title", title}, {"author", author}, {"content", content}} {
		if !f.ok {
			missing = append(missing, "{"+f.name+"}")
		}
	}
	return missing
}
