// Package session holds the state of one interactive summarisation session.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"booksum/internal/catalog"
	"booksum/internal/domain"
	"booksum/internal/prompt"
	"booksum/internal/service"
)

var (
	ErrNoSelection = errors.New("no book selected")
	ErrNoSummary   = errors.New("no summary generated yet")
	ErrNotSummary  = errors.New("last result is not a summary")
)

// Session is owned by a single UI or command invocation and passed to its
// handlers explicitly.
type Session struct {
	Books    []domain.BookInfo
	Matches  []domain.BookInfo
	Mode     catalog.Mode
	Selected *domain.BookInfo
	Language string
	// Template is the user-edited template; empty means the default for Language.
	Template string
	Last     *service.SummaryResult
}

func New(books []domain.BookInfo, language string) *Session {
	if language == "" {
		language = prompt.DefaultLanguage
	}
	s := &Session{Books: books, Language: language}
	s.Search("", "")
	return s
}

// Search refreshes Matches. In title or author mode only the relevant
// criterion is applied.
func (s *Session) Search(title, author string) []domain.BookInfo {
	switch s.Mode {
	case catalog.ModeAll:
		title, author = "", ""
	case catalog.ModeTitle:
		author = ""
	case catalog.ModeAuthor:
		title = ""
	}
	s.Matches = catalog.Search(s.Books, title, author)
	return s.Matches
}

// Select marks Matches[i] as the current book.
func (s *Session) Select(i int) (domain.BookInfo, error) {
	if i < 0 || i >= len(s.Matches) {
		return domain.BookInfo{}, fmt.Errorf("selection %d out of range (%d matches)", i, len(s.Matches))
	}
	b := s.Matches[i]
	s.Selected = &b
	return b, nil
}

// NextLanguage cycles to the next supported language.
func (s *Session) NextLanguage() string {
	langs := prompt.Languages()
	next := langs[0]
	for i, l := range langs {
		if l == s.Language {
			next = langs[(i+1)%len(langs)]
			break
		}
	}
	s.Language = next
	return next
}

// Request builds the summary request for the selected book.
func (s *Session) Request() (service.SummaryRequest, error) {
	if s.Selected == nil {
		return service.SummaryRequest{}, ErrNoSelection
	}
	return service.SummaryRequest{
		Book:     s.Selected.Metadata(),
		Language: s.Language,
		Template: s.Template,
	}, nil
}

// EditableTemplate returns the template the next request will use.
func (s *Session) EditableTemplate() (string, error) {
	if strings.TrimSpace(s.Template) != "" {
		return s.Template, nil
	}
	return prompt.DefaultTemplate(s.Language)
}

// SetTemplate stores an edited template. Text equal to the default for the
// current language, or blank text, resets to the default so that later
// language changes still apply. It returns the placeholders the template no
// longer references.
func (s *Session) SetTemplate(text string) []string {
	def, err := prompt.DefaultTemplate(s.Language)
	if strings.TrimSpace(text) == "" || (err == nil && strings.TrimSpace(text) == strings.TrimSpace(def)) {
		s.Template = ""
		return nil
	}
	s.Template = text
	return prompt.MissingPlaceholders(text)
}

// Record stores the latest result, replacing any earlier one.
func (s *Session) Record(res service.SummaryResult) {
	s.Last = &res
}

// Markdown renders the last summary as a markdown document.
func (s *Session) Markdown() (string, error) {
	if s.Last == nil {
		return "", ErrNoSummary
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary: %s\n\n", s.Last.Book.Title)
	if s.Last.Book.Author != "" {
		fmt.Fprintf(&b, "_%s_\n\n", s.Last.Book.Author)
	}
	b.WriteString(strings.TrimSpace(s.Last.Text))
	b.WriteString("\n")
	return b.String(), nil
}

// SaveMarkdown writes the last summary into dir and returns the file path.
// Failed and no-content results are not written.
func (s *Session) SaveMarkdown(dir string) (string, error) {
	if s.Last != nil && (s.Last.Failed || s.Last.Empty) {
		return "", ErrNotSummary
	}
	md, err := s.Markdown()
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, FileName(s.Last.Book.Title, s.Last.Language))
	if err := os.WriteFile(p, []byte(md), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// FileName derives a markdown file name from a title and language.
func FileName(title, language string) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "summary"
	}
	if language != "" {
		slug += "." + strings.ToLower(language)
	}
	return slug + ".md"
}
