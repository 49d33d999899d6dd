package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksum/internal/config"
	"booksum/internal/domain"
)

var catalogBooks = []domain.BookInfo{
	{Filename: "a.pdf", Title: "Atomic Habits", Author: "James Clear"},
	{Filename: "b.pdf", Title: "Deep Work", Author: "Cal Newport"},
	{Filename: "c.pdf", Title: "Deep Work Workbook", Author: "Someone Else"},
}

func TestFindBook(t *testing.T) {
	b, err := findBook(catalogBooks, "atomic", "")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", b.Filename)

	b, err = findBook(catalogBooks, "deep work", "")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", b.Filename)

	b, err = findBook(catalogBooks, "deep", "else")
	require.NoError(t, err)
	assert.Equal(t, "c.pdf", b.Filename)

	_, err = findBook(catalogBooks, "deep", "")
	assert.Error(t, err)

	b, err = findBook(catalogBooks, "Mindset", "Carol Dweck")
	require.NoError(t, err)
	assert.Equal(t, domain.BookInfo{Title: "Mindset", Author: "Carol Dweck"}, b)

	_, err = findBook(catalogBooks, "", "nobody")
	assert.Error(t, err)
}

func TestBuildSearcherMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"vector":[1,0],"fields":{"chunk":"c"}}`+"\n"), 0o644))

	s, err := buildSearcher(config.VectorStoreConfig{Type: "memory", Memory: &config.MemoryConfig{Snapshot: path}})
	require.NoError(t, err)
	recs, err := s.Search(context.Background(), domain.SearchRequest{Vector: []float64{1, 0}, Top: 1, Select: []string{"chunk"}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestBuildSearcherErrors(t *testing.T) {
	_, err := buildSearcher(config.VectorStoreConfig{Type: "qdrant"})
	assert.Error(t, err)
	_, err = buildSearcher(config.VectorStoreConfig{Type: "pinecone"})
	assert.ErrorContains(t, err, "unknown vector store")
}

func TestBuildCatalog(t *testing.T) {
	src, err := buildCatalog(config.CatalogConfig{Type: "dir", Dir: t.TempDir()})
	require.NoError(t, err)
	books, err := src.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)

	_, err = buildCatalog(config.CatalogConfig{Type: "ftp"})
	assert.Error(t, err)
}

func TestBuildStaticCatalog(t *testing.T) {
	cfg, err := config.Parse([]byte(`
catalog:
  type: static
  books:
    - title: Atomic Habits
      author: James Clear
    - title: Deep Work
      author: Cal Newport
      filename: deep-work.pdf
`))
	require.NoError(t, err)

	src, err := buildCatalog(cfg.Catalog)
	require.NoError(t, err)
	books, err := src.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.BookInfo{
		{Title: "Atomic Habits", Author: "James Clear"},
		{Filename: "deep-work.pdf", Title: "Deep Work", Author: "Cal Newport"},
	}, books)

	b, err := findBook(books, "deep", "")
	require.NoError(t, err)
	assert.Equal(t, "deep-work.pdf", b.Filename)
}

func TestTemplateWarnsOnMissingPlaceholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.txt")
	require.NoError(t, os.WriteFile(path, []byte("Summarise {{title}} by {{author}}."), 0o644))

	var buf bytes.Buffer
	app := &AppContext{
		Config: &config.AppConfig{Summary: config.SummaryConfig{TemplatePath: path}},
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	}
	tmpl, err := app.Template("English")
	require.NoError(t, err)
	assert.Equal(t, "Summarise {{title}} by {{author}}.", tmpl)
	assert.Contains(t, buf.String(), "template does not use every placeholder")
	assert.Contains(t, buf.String(), "{content}")

	buf.Reset()
	app.Config.Summary.TemplatePath = ""
	tmpl, err = app.Template("German")
	require.NoError(t, err)
	assert.Contains(t, tmpl, "{{content}}")
	assert.Empty(t, buf.String())
}

func TestBuildSearcherQdrantVectorName(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	req := domain.SearchRequest{Vector: []float64{1}, Top: 1, VectorField: "text_vector"}
	for _, name := range []string{"", "text"} {
		s, err := buildSearcher(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{
			URL: srv.URL, Collection: "books", VectorName: name,
		}})
		require.NoError(t, err)
		_, err = s.Search(context.Background(), req)
		require.NoError(t, err)
	}

	require.Len(t, bodies, 2)
	assert.Equal(t, []any{float64(1)}, bodies[0]["vector"])
	assert.Equal(t, map[string]any{"name": "text", "vector": []any{float64(1)}}, bodies[1]["vector"])
}

func TestBuildProvidersNeedKeys(t *testing.T) {
	t.Setenv("BOOKSUM_TEST_NO_KEY", "")
	oc := config.OpenAIConfig{Provider: "openai", APIKeyEnv: "BOOKSUM_TEST_NO_KEY"}

	_, err := buildEmbedder(config.EmbedderConfig{Type: "openai", OpenAI: oc})
	assert.Error(t, err)
	_, err = buildGenerator(config.GeneratorConfig{Type: "openai", OpenAI: oc})
	assert.Error(t, err)

	t.Setenv("BOOKSUM_TEST_KEY", "sk-test")
	oc.APIKeyEnv = "BOOKSUM_TEST_KEY"
	emb, err := buildEmbedder(config.EmbedderConfig{Type: "openai", Model: "text-embedding-3-small", OpenAI: oc})
	require.NoError(t, err)
	assert.Equal(t, "openai:text-embedding-3-small", emb.Name())

	_, err = buildGenerator(config.GeneratorConfig{Type: "llama"})
	assert.ErrorContains(t, err, "unknown generator")
}
