// Package retrieval turns book metadata into query variants and gathers
// matching chunks from a vector index.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"booksum/internal/domain"
)

const (
	DefaultTopK        = 100
	DefaultKNN         = 50
	DefaultVectorField = "text_vector"
	DefaultChunkField  = "chunk"
	DefaultPacing      = 200 * time.Millisecond
)

// ErrEmptyEmbedding marks a provider answer without a usable vector.
var ErrEmptyEmbedding = errors.New("embedding provider returned an empty vector")

// Status classifies how a single query went.
type Status int

const (
	OutcomeOK Status = iota
	OutcomeEmpty
	OutcomeEmbedFailed
	OutcomeSearchFailed
	OutcomeSkipped
)

func (s Status) String() string {
	switch s {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeEmbedFailed:
		return "embed_failed"
	case OutcomeSearchFailed:
		return "search_failed"
	case OutcomeSkipped:
		return "skipped"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// QueryOutcome records the result of one query. Failed queries carry Err and
// contribute no chunks.
type QueryOutcome struct {
	Status  Status
	Chunks  int
	Dropped int
	Err     error
}

// Failed reports whether a provider call failed or the query never ran.
func (o QueryOutcome) Failed() bool {
	return o.Status == OutcomeEmbedFailed || o.Status == OutcomeSearchFailed || o.Status == OutcomeSkipped
}

// Retrieval is the complete result of one Retrieve call. Queries keeps the
// processing order; Chunks and Outcomes have an entry for every query.
type Retrieval struct {
	Queries  []string
	Chunks   map[string][]string
	Outcomes map[string]QueryOutcome
}

// Content flattens the chunks into a single blob capped at limit characters.
func (r Retrieval) Content(limit int) string {
	return FlattenContent(r.Queries, r.Chunks, limit)
}

// Failures counts queries whose provider calls failed.
func (r Retrieval) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// ProgressFunc is called before each query is processed.
type ProgressFunc func(index, total int, query string)

// Aggregator runs queries one at a time through the embedder and the vector index.
type Aggregator struct {
	embedder    domain.Embedder
	searcher    domain.VectorSearcher
	topK        int
	knn         int
	vectorField string
	chunkField  string
	pacing      time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	progress    ProgressFunc
	logger      *slog.Logger
}

type Option func(*Aggregator)

// WithTopK sets the per-query result cap.
func WithTopK(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topK = n
		}
	}
}

// WithKNN sets the nearest-neighbour candidate pool.
func WithKNN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.knn = n
		}
	}
}

// WithFields overrides the vector and chunk field names of the index.
func WithFields(vectorField, chunkField string) Option {
	return func(a *Aggregator) {
		if vectorField != "" {
			a.vectorField = vectorField
		}
		if chunkField != "" {
			a.chunkField = chunkField
		}
	}
}

// WithPacing sets the delay between successive queries. Zero disables it.
func WithPacing(d time.Duration) Option {
	return func(a *Aggregator) {
		if d >= 0 {
			a.pacing = d
		}
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.sleep = fn
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(a *Aggregator) { a.progress = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAggregator(embedder domain.Embedder, searcher domain.VectorSearcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		embedder:    embedder,
		searcher:    searcher,
		topK:        DefaultTopK,
		knn:         DefaultKNN,
		vectorField: DefaultVectorField,
		chunkField:  DefaultChunkField,
		pacing:      DefaultPacing,
		sleep:       sleepContext,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Retrieve runs every query and never fails: a query whose embedding or
// search call fails maps to an empty chunk list and the batch continues.
// Cancellation is honoured between queries only; queries not reached are
// recorded as skipped.
func (a *Aggregator) Retrieve(ctx context.Context, queries []string) Retrieval {
	res := Retrieval{
		Queries:  make([]string, 0, len(queries)),
		Chunks:   make(map[string][]string, len(queries)),
		Outcomes: make(map[string]QueryOutcome, len(queries)),
	}
	for _, q := range queries {
		if _, dup := res.Chunks[q]; dup {
			continue
		}
		res.Queries = append(res.Queries, q)
		res.Chunks[q] = []string{}
	}

	total := len(res.Queries)
	for i, q := range res.Queries {
		if i > 0 && a.pacing > 0 {
			if err := a.sleep(ctx, a.pacing); err != nil {
				a.skipRemaining(res, i, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			a.skipRemaining(res, i, err)
			break
		}
		if a.progress != nil {
			a.progress(i, total, q)
		}
		chunks, outcome := a.runQuery(ctx, q)
		res.Chunks[q] = chunks
		res.Outcomes[q] = outcome
		if outcome.Err != nil {
			a.logger.Warn("retrieval query failed", "query", q, "status", outcome.Status.String(), "error", outcome.Err)
		} else {
			a.logger.Debug("retrieval query done", "query", q, "chunks", outcome.Chunks, "dropped", outcome.Dropped)
		}
	}
	return res
}

func (a *Aggregator) runQuery(ctx context.Context, q string) (chunks []string, out QueryOutcome) {
	chunks = []string{}
	defer func() {
		if r := recover(); r != nil {
			chunks = []string{}
			out = QueryOutcome{Status: OutcomeSearchFailed, Err: fmt.Errorf("panic during retrieval: %v", r)}
		}
	}()

	vec, err := a.embedder.Embed(ctx, q)
	if err != nil {
		return chunks, QueryOutcome{Status: OutcomeEmbedFailed, Err: err}
	}
	if len(vec) == 0 {
		return chunks, QueryOutcome{Status: OutcomeEmbedFailed, Err: ErrEmptyEmbedding}
	}

	records, err := a.searcher.Search(ctx, domain.SearchRequest{
		Vector:      vec,
		K:           a.knn,
		Top:         a.topK,
		VectorField: a.vectorField,
		Select:      []string{a.chunkField},
	})
	if err != nil {
		return chunks, QueryOutcome{Status: OutcomeSearchFailed, Err: err}
	}

	dropped := 0
	for _, r := range records {
		text, ok := r.Text(a.chunkField)
		if !ok {
			dropped++
			continue
		}
		chunks = append(chunks, text)
	}
	status := OutcomeOK
	if len(chunks) == 0 {
		status = OutcomeEmpty
	}
	return chunks, QueryOutcome{Status: status, Chunks: len(chunks), Dropped: dropped}
}

func (a *Aggregator) skipRemaining(res Retrieval, from int, cause error) {
	for _, q := range res.Queries[from:] {
		res.Outcomes[q] = QueryOutcome{Status: OutcomeSkipped, Err: cause}
	}
	a.logger.Warn("retrieval interrupted", "skipped", len(res.Queries)-from, "error", cause)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
