// Package azuresearch queries an existing Azure AI Search index with vector queries.
package azuresearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"booksum/internal/domain"
)

// DefaultAPIVersion is the data-plane API version used for docs/search.
const DefaultAPIVersion = "2024-07-01"

var errMissingIndex = errors.New("azuresearch: endpoint and index are required")

// Searcher is a minimal REST client for the docs/search endpoint.
type Searcher struct {
	endpoint   string
	index      string
	apiKey     string
	apiVersion string
	client     *http.Client
}

type Config struct {
	Endpoint   string
	Index      string
	APIKeyEnv  string
	APIVersion string
	Timeout    time.Duration
}

func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.Endpoint == "" || cfg.Index == "" {
		return nil, errMissingIndex
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("azuresearch: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Searcher{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		index:      cfg.Index,
		apiKey:     key,
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float64 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchBody struct {
	Search        string        `json:"search"`
	VectorQueries []vectorQuery `json:"vectorQueries"`
	Select        string        `json:"select,omitempty"`
	Top           int           `json:"top,omitempty"`
}

// Search runs a pure vector query; search text is "*" so the lexical side matches everything.
func (s *Searcher) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Record, error) {
	body := searchBody{
		Search: "*",
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: req.Vector,
			K:      req.K,
			Fields: req.VectorField,
		}},
		Select: strings.Join(req.Select, ","),
		Top:    req.Top,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		s.endpoint, url.PathEscape(s.index), url.QueryEscape(s.apiVersion))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("azuresearch POST %s failed: %s: %s", s.index, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("azuresearch: decode response: %w", err)
	}
	records := make([]domain.Record, 0, len(out.Value))
	for _, doc := range out.Value {
		rec := domain.Record{Fields: doc}
		if v, ok := doc["@search.score"].(float64); ok {
			rec.Score = v
		}
		records = append(records, rec)
	}
	return records, nil
}

var _ domain.VectorSearcher = (*Searcher)(nil)
