package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"booksum/internal/domain"
	"booksum/internal/prompt"
	"booksum/internal/retrieval"
)

const (
	// NoContentMessage is returned when retrieval produced no usable text.
	NoContentMessage = "Summary could not be generated - no content available."
	// ErrorMarker starts every result produced by a failed generation.
	ErrorMarker = "Error:"
)

// ErrEmptySummary is reported when the generator succeeds with blank text.
var ErrEmptySummary = errors.New("generator returned an empty summary")

// IsFailure reports whether text is a failure result rather than a summary.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, ErrorMarker) || text == NoContentMessage
}

// SummaryRequest asks for one summary.
type SummaryRequest struct {
	Book     domain.BookMetadata
	Language string
	// Template overrides the default template for Language when non-empty.
	Template string
}

// SummaryResult is returned for every request. Failures are carried in Text
// with Failed or Empty set; the service itself never returns an error.
type SummaryResult struct {
	// RunID tags the log lines of one Summarize call.
	RunID     string
	Book      domain.BookMetadata
	Language  string
	Text      string
	Queries   []string
	Retrieval retrieval.Retrieval
	Content   string
	Prompt    string
	Failed    bool
	Empty     bool
	Duration  time.Duration
}

// Retriever is the subset of the aggregator the service needs.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string) retrieval.Retrieval
}

// SummaryService wires query generation, retrieval, prompt assembly and generation.
type SummaryService struct {
	retriever    Retriever
	generator    domain.Generator
	contentLimit int
	logger       *slog.Logger
}

type Option func(*SummaryService)

func WithContentLimit(n int) Option {
	return func(s *SummaryService) {
		if n > 0 {
			s.contentLimit = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *SummaryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSummaryService(retriever Retriever, generator domain.Generator, opts ...Option) *SummaryService {
	s := &SummaryService{
		retriever:    retriever,
		generator:    generator,
		contentLimit: retrieval.MaxContentChars,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Queries returns the query set that Summarize would issue for book.
func (s *SummaryService) Queries(book domain.BookMetadata) []string {
	return retrieval.GenerateQueries(book)
}

// Summarize runs the full pipeline for one book.
func (s *SummaryService) Summarize(ctx context.Context, req SummaryRequest) (res SummaryResult) {
	start := time.Now()
	res = SummaryResult{RunID: uuid.NewString(), Book: req.Book, Language: req.Language}
	defer func() { res.Duration = time.Since(start) }()

	log := s.logger.With("run", res.RunID, "title", req.Book.Title, "author", req.Book.Author, "language", req.Language)

	res.Queries = retrieval.GenerateQueries(req.Book)
	log.Info("retrieving content", "queries", len(res.Queries))
	res.Retrieval = s.retriever.Retrieve(ctx, res.Queries)
	res.Content = res.Retrieval.Content(s.contentLimit)
	log.Info("retrieval finished", "chars", len([]rune(res.Content)), "failedQueries", res.Retrieval.Failures())

	if strings.TrimSpace(res.Content) == "" {
		log.Warn("no content retrieved, skipping generation")
		res.Text = NoContentMessage
		res.Empty = true
		return res
	}

	tmpl := req.Template
	if strings.TrimSpace(tmpl) == "" {
		var err error
		tmpl, err = prompt.DefaultTemplate(req.Language)
		if err != nil {
			res.Text = errorText(err)
			res.Failed = true
			return res
		}
	}
	res.Prompt = prompt.Assemble(tmpl, req.Book, res.Content)

	text, err := s.generate(ctx, res.Prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptySummary
	}
	if err != nil {
		log.Error("summary generation failed", "error", err)
		res.Text = errorText(err)
		res.Failed = true
		return res
	}
	log.Info("summary generated", "chars", len([]rune(text)))
	res.Text = text
	return res
}

func (s *SummaryService) generate(ctx context.Context, p string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return s.generator.Generate(ctx, p)
}

func errorText(err error) string {
	return fmt.Sprintf("%s summary generation failed: %v", ErrorMarker, err)
}
