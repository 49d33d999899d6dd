package retrieval

import (
	"sort"
	"strings"

	"booksum/internal/domain"
)

// queryForms lists the intent variants issued for every book. %t is the
// title and %a the author.
var queryForms = []string{
	"%t",
	"%t summary",
	"%t key concepts",
	"%t main ideas",
	"%a %t",
	"key takeaways %t",
	"actionable advice %t",
	"lessons from %t",
	"%t principles",
}

// GenerateQueries derives the retrieval query set for a book. The result holds
// no duplicates and every query contains the title; it is sorted only so that
// runs are reproducible.
func GenerateQueries(meta domain.BookMetadata) []string {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		return nil
	}
	author := strings.TrimSpace(meta.Author)
	r := strings.NewReplacer("%t", title, "%a", author)

	set := make(map[string]struct{}, len(queryForms))
	for _, form := range queryForms {
		q := strings.TrimSpace(r.Replace(form))
		set[q] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for q := range set {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}
