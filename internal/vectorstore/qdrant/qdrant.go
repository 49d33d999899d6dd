package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"booksum/internal/domain"
)

// Searcher is a minimal REST client to an existing Qdrant collection.
// Chunk text is read from the point payload. The request's VectorField is
// ignored; a named vector is only sent when Config.VectorName is set.
type Searcher struct {
	url        string
	apiKey     string
	collection string
	vectorName string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKeyEnv  string
	Collection string
	VectorName string
	Timeout    time.Duration
}

func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("qdrant: url and collection are required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &Searcher{
		url:        cfg.URL,
		apiKey:     key,
		collection: cfg.Collection,
		vectorName: cfg.VectorName,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *Searcher) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Record, error) {
	limit := req.Top
	if limit <= 0 {
		limit = 5
	}
	var vector any = req.Vector
	if s.vectorName != "" {
		vector = map[string]any{"name": s.vectorName, "vector": req.Vector}
	}
	body := map[string]any{
		"vector": vector,
		"limit":  limit,
	}
	if len(req.Select) > 0 {
		body["with_payload"] = req.Select
	} else {
		body["with_payload"] = true
	}
	if req.K > 0 {
		// search-time candidate pool, analogous to k nearest neighbours
		body["params"] = map[string]any{"hnsw_ef": req.K}
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), body, &resp); err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(resp.Result))
	for _, r := range resp.Result {
		records = append(records, domain.Record{Fields: r.Payload, Score: r.Score})
	}
	return records, nil
}

func (s *Searcher) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}

var _ domain.VectorSearcher = (*Searcher)(nil)
