// Package catalog lists candidate books and infers title and author from
// file names. The inference is a best-effort heuristic.
package catalog

import (
	"path"
	"sort"
	"strings"

	"booksum/internal/domain"
)

// DocumentExt is the only extension treated as a book.
const DocumentExt = ".pdf"

// mirrorSuffixes are download-site tags appended to file names.
var mirrorSuffixes = []string{" - libgen.li", " - z-lib.org", " - z-library", " - libgen", " - zlibrary"}

// IsDocument reports whether name looks like a book file.
func IsDocument(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), DocumentExt)
}

// ParseFilename infers (title, author) from a file name.
//
//	"Author - Title.pdf"  -> Title, Author
//	"Title (Author).pdf"  -> Title, Author
//	anything else         -> name, UnknownAuthor
func ParseFilename(name string) (title, author string) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if IsDocument(base) {
		base = base[:len(base)-len(DocumentExt)]
	}
	base = strings.TrimSpace(base)
	lower := strings.ToLower(base)
	for _, suffix := range mirrorSuffixes {
		if strings.HasSuffix(lower, suffix) {
			base = strings.TrimSpace(base[:len(base)-len(suffix)])
			break
		}
	}

	if strings.Contains(base, " - ") {
		parts := strings.Split(base, " - ")
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	}
	if open := strings.Index(base, "("); open >= 0 && strings.Contains(base, ")") {
		title = strings.TrimSpace(base[:open])
		rest := base[open+1:]
		if end := strings.Index(rest, "("); end >= 0 {
			rest = rest[:end]
		}
		author = strings.TrimSpace(strings.ReplaceAll(rest, ")", ""))
		if author == "" {
			author = domain.UnknownAuthor
		}
		return title, author
	}
	return base, domain.UnknownAuthor
}

// FromNames builds catalog entries for every document name, sorted by title.
func FromNames(names []string) []domain.BookInfo {
	books := make([]domain.BookInfo, 0, len(names))
	for _, n := range names {
		if !IsDocument(n) {
			continue
		}
		title, author := ParseFilename(n)
		books = append(books, domain.BookInfo{Filename: n, Title: title, Author: author})
	}
	sort.SliceStable(books, func(i, j int) bool {
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
	return books
}

// Mode selects which fields Search filters on.
type Mode int

const (
	ModeAll Mode = iota
	ModeTitle
	ModeAuthor
	ModeBoth
)

func (m Mode) String() string {
	switch m {
	case ModeTitle:
		return "Title"
	case ModeAuthor:
		return "Author"
	case ModeBoth:
		return "Both"
	}
	return "View All"
}

// Next cycles through the modes.
func (m Mode) Next() Mode {
	return (m + 1) % 4
}

// Search returns books whose title and author contain the given
// case-insensitive fragments. Empty criteria match everything.
func Search(books []domain.BookInfo, title, author string) []domain.BookInfo {
	title = strings.ToLower(strings.TrimSpace(title))
	author = strings.ToLower(strings.TrimSpace(author))
	var out []domain.BookInfo
	for _, b := range books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(b.Author), author) {
			continue
		}
		out = append(out, b)
	}
	return out
}
