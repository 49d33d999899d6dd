package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksum/internal/domain"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		title  string
		author string
	}{
		{"author dash title", "James Clear - Atomic Habits.pdf", "Atomic Habits", "James Clear"},
		{"mirror suffix", "Cal Newport - Deep Work - libgen.li.pdf", "Deep Work", "Cal Newport"},
		{"zlib suffix", "Carol Dweck - Mindset - z-lib.org.pdf", "Mindset", "Carol Dweck"},
		{"parenthesised author", "Atomic Habits (James Clear).pdf", "Atomic Habits", "James Clear"},
		{"parenthesised with extra", "Atomic Habits (James Clear) (2018).pdf", "Atomic Habits", "James Clear"},
		{"no author", "Meditations.pdf", "Meditations", domain.UnknownAuthor},
		{"nested path", "books/self-help/James Clear - Atomic Habits.pdf", "Atomic Habits", "James Clear"},
		{"uppercase extension", "Ikigai.PDF", "Ikigai", domain.UnknownAuthor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, author := ParseFilename(tt.in)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.author, author)
		})
	}
}

func TestFromNamesFiltersAndSorts(t *testing.T) {
	books := FromNames([]string{
		"Cal Newport - Deep Work.pdf",
		"notes.txt",
		"James Clear - Atomic Habits.pdf",
		"cover.jpg",
	})
	require.Len(t, books, 2)
	assert.Equal(t, "Atomic Habits", books[0].Title)
	assert.Equal(t, "James Clear - Atomic Habits.pdf", books[0].Filename)
	assert.Equal(t, "Deep Work", books[1].Title)
}

func TestSearch(t *testing.T) {
	books := []domain.BookInfo{
		{Title: "Atomic Habits", Author: "James Clear"},
		{Title: "Deep Work", Author: "Cal Newport"},
		{Title: "Digital Minimalism", Author: "Cal Newport"},
	}

	assert.Len(t, Search(books, "", ""), 3)
	assert.Len(t, Search(books, "HABITS", ""), 1)
	assert.Len(t, Search(books, "", "newport"), 2)
	assert.Len(t, Search(books, "deep", "newport"), 1)
	assert.Empty(t, Search(books, "deep", "clear"))
}

func TestModeCycle(t *testing.T) {
	m := ModeAll
	var names []string
	for i := 0; i < 4; i++ {
		names = append(names, m.String())
		m = m.Next()
	}
	assert.Equal(t, []string{"View All", "Title", "Author", "Both"}, names)
	assert.Equal(t, ModeAll, m)
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	for _, name := range []string{"James Clear - Atomic Habits.pdf", "sub/Deep Work (Cal Newport).pdf", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	books, err := NewDirSource(root).ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, domain.BookInfo{Filename: "James Clear - Atomic Habits.pdf", Title: "Atomic Habits", Author: "James Clear"}, books[0])
	assert.Equal(t, "sub/Deep Work (Cal Newport).pdf", books[1].Filename)
	assert.Equal(t, "Cal Newport", books[1].Author)
}

func TestDirSourceMissingRoot(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope")).ListBooks(context.Background())
	assert.Error(t, err)
}

func TestBlobSourceRequiresConfig(t *testing.T) {
	_, err := NewBlobSource(BlobConfig{ConnectionStringEnv: "BOOKSUM_TEST_UNSET"})
	assert.Error(t, err)

	t.Setenv("BOOKSUM_TEST_UNSET", "")
	_, err = NewBlobSource(BlobConfig{ConnectionStringEnv: "BOOKSUM_TEST_UNSET", Container: "books"})
	assert.ErrorContains(t, err, "BOOKSUM_TEST_UNSET")
}

func TestStaticSourceReturnsCopy(t *testing.T) {
	src := StaticSource{{Title: "A"}}
	books, err := src.ListBooks(context.Background())
	require.NoError(t, err)
	books[0].Title = "changed"
	assert.Equal(t, "A", src[0].Title)
}
