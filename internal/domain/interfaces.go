package domain

import (
	"context"
	"strings"
)

// UnknownAuthor is used when a catalog entry carries no recognisable author.
const UnknownAuthor = "Unknown Author"

// BookMetadata describes the book a summary is generated for.
type BookMetadata struct {
	Title         string
	Author        string
	Filename      string
	Publisher     string
	PublishedDate string
	Description   string
}

// BookInfo is a single catalog entry.
type BookInfo struct {
	Filename string
	Title    string
	Author   string
}

// Metadata converts the catalog entry into summary metadata.
func (b BookInfo) Metadata() BookMetadata {
	author := strings.TrimSpace(b.Author)
	if author == "" {
		author = UnknownAuthor
	}
	return BookMetadata{Title: strings.TrimSpace(b.Title), Author: author, Filename: b.Filename}
}

// Label is the human readable "Title (Author)" form.
func (b BookInfo) Label() string {
	return b.Title + " (" + b.Author + ")"
}

// Record is a single hit returned by a vector search index.
type Record struct {
	Fields map[string]any
	Score  float64
}

// Text returns the named field if it is present and holds a string.
func (r Record) Text(field string) (string, bool) {
	v, ok := r.Fields[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SearchRequest is a nearest-neighbour query against a pre-built index.
type SearchRequest struct {
	Vector      []float64
	K           int // nearest-neighbour candidate pool
	Top         int // result cap
	VectorField string
	Select      []string
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorSearcher runs similarity searches against an existing index.
type VectorSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]Record, error)
}

// Generator produces text for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CatalogSource lists the books available for summarisation.
type CatalogSource interface {
	ListBooks(ctx context.Context) ([]BookInfo, error)
}
