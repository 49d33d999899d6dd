package azuresearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksum/internal/domain"
)

func newTestSearcher(t *testing.T, handler http.HandlerFunc) *Searcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_SEARCH_KEY", "secret")
	s, err := NewSearcher(Config{Endpoint: srv.URL + "/", Index: "books-index", APIKeyEnv: "TEST_SEARCH_KEY"})
	require.NoError(t, err)
	return s
}

func TestSearchRequestShape(t *testing.T) {
	var got searchBody
	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/indexes/books-index/docs/search", r.URL.Path)
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"value":[
			{"@search.score":0.87,"chunk":"habits are the compound interest of self-improvement"},
			{"@search.score":0.5,"chunk":"second"}
		]}`))
	})

	recs, err := s.Search(context.Background(), domain.SearchRequest{
		Vector:      []float64{0.1, 0.2},
		K:           50,
		Top:         100,
		VectorField: "text_vector",
		Select:      []string{"chunk"},
	})
	require.NoError(t, err)

	assert.Equal(t, "*", got.Search)
	require.Len(t, got.VectorQueries, 1)
	assert.Equal(t, "vector", got.VectorQueries[0].Kind)
	assert.Equal(t, 50, got.VectorQueries[0].K)
	assert.Equal(t, "text_vector", got.VectorQueries[0].Fields)
	assert.Equal(t, []float64{0.1, 0.2}, got.VectorQueries[0].Vector)
	assert.Equal(t, "chunk", got.Select)
	assert.Equal(t, 100, got.Top)

	require.Len(t, recs, 2)
	text, ok := recs[0].Text("chunk")
	assert.True(t, ok)
	assert.Equal(t, "habits are the compound interest of self-improvement", text)
	assert.InDelta(t, 0.87, recs[0].Score, 1e-9)
}

func TestSearchHTTPError(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not found", http.StatusNotFound)
	})

	_, err := s.Search(context.Background(), domain.SearchRequest{Vector: []float64{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "index not found")
}

func TestSearchBadJSON(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := s.Search(context.Background(), domain.SearchRequest{Vector: []float64{1}})
	assert.ErrorContains(t, err, "decode response")
}

func TestNewSearcherValidation(t *testing.T) {
	_, err := NewSearcher(Config{Index: "x", APIKeyEnv: "K"})
	assert.Error(t, err)

	t.Setenv("TEST_EMPTY_KEY", "")
	_, err = NewSearcher(Config{Endpoint: "https://example.search.windows.net", Index: "x", APIKeyEnv: "TEST_EMPTY_KEY"})
	assert.ErrorContains(t, err, "TEST_EMPTY_KEY")
}
