package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"booksum/internal/domain"
)

const (
	DefaultChatModel   = "gpt-4.1"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.2

	rateLimitRetries = 3
	baseBackoff      = 2 * time.Second
	maxBackoff       = 32 * time.Second
)

var (
	// ErrNoChoices is returned when a completion carries no choices.
	ErrNoChoices = errors.New("openai: no completion choices returned")
	// ErrEmptyCompletion is returned when the first choice has no text, for
	// example when a content filter stopped the completion.
	ErrEmptyCompletion = errors.New("openai: completion has no content")
	// ErrRateLimited is returned once rate-limit retries are exhausted.
	ErrRateLimited = errors.New("openai: rate limit retries exceeded")
)

// GeneratorConfig configures chat completions.
type GeneratorConfig struct {
	Connection  Connection
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generator sends a single user prompt and returns the completion text.
type Generator struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	backoff     func(attempt int) time.Duration
}

// NewGenerator creates a chat completion client.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	client, err := newClient(cfg.Connection)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Generator{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		backoff:     retryDelay,
	}, nil
}

// ModelName returns the chat model or Azure deployment name.
func (g *Generator) ModelName() string { return g.model }

// Generate returns the completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(g.maxTokens)),
		Temperature: openai.Float(g.temperature),
	}

	var lastErr error
	for attempt := 0; attempt <= rateLimitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.backoff(attempt)):
			}
		}
		completion, err := g.client.Chat.Completions.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				lastErr = err
				continue
			}
			return "", fmt.Errorf("openai chat completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", ErrNoChoices
		}
		choice := completion.Choices[0]
		if strings.TrimSpace(choice.Message.Content) == "" {
			return "", fmt.Errorf("%w (finish_reason %q)", ErrEmptyCompletion, choice.FinishReason)
		}
		return choice.Message.Content, nil
	}
	return "", fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

func retryDelay(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

var _ domain.Generator = (*Generator)(nil)
