package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"

	"booksum/internal/domain"
)

// DefaultEmbeddingModel is used when the config leaves the model empty.
const DefaultEmbeddingModel = "text-embedding-3-large"

// ErrEmptyEmbedding is returned when the API answers without a vector.
var ErrEmptyEmbedding = errors.New("openai: empty embedding")

// Embedder is an embeddings client implementing domain.Embedder.
// For Azure the model is the deployment name.
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
}

// EmbedderConfig configures the embeddings client.
type EmbedderConfig struct {
	Connection Connection
	Model      string
	// Dimensions optionally asks the API to shorten vectors. Zero keeps the model default.
	Dimensions int
}

// NewEmbedder creates a new embeddings client using the provided configuration.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	client, err := newClient(cfg.Connection)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: cfg.Model, dimension: cfg.Dimensions}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai:" + e.model }

// Embed returns an embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

var _ domain.Embedder = (*Embedder)(nil)
