// Package openai talks to OpenAI-compatible and Azure OpenAI endpoints for
// both embeddings and chat completions.
package openai

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"

	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultAzureVersion  = "2024-12-01-preview"
	DefaultTimeout       = 60 * time.Second
	DefaultMaxRetries    = 3
	DefaultAPIKeyEnvName = "OPENAI_API_KEY"
)

var (
	// ErrMissingAPIKey is returned when the configured environment variable is empty.
	ErrMissingAPIKey = errors.New("openai: missing API key")
	// ErrMissingEndpoint is returned for Azure connections without an endpoint.
	ErrMissingEndpoint = errors.New("openai: azure endpoint not set")
)

// Connection describes how to reach the API. The same connection is shared
// by the embedder and the generator.
type Connection struct {
	Provider   string
	BaseURL    string
	Endpoint   string
	APIVersion string
	APIKeyEnv  string
	Timeout    time.Duration
	MaxRetries int
}

func (c Connection) withDefaults() Connection {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAzureVersion
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnvName
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// RequestOptions resolves the connection into openai-go request options.
func (c Connection) RequestOptions() ([]option.RequestOption, error) {
	c = c.withDefaults()
	key := os.Getenv(c.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, c.APIKeyEnv)
	}
	opts := []option.RequestOption{
		option.WithRequestTimeout(c.Timeout),
		option.WithMaxRetries(c.MaxRetries),
	}
	switch c.Provider {
	case ProviderAzure:
		if c.Endpoint == "" {
			return nil, ErrMissingEndpoint
		}
		opts = append(opts,
			azure.WithEndpoint(c.Endpoint, c.APIVersion),
			azure.WithAPIKey(key),
		)
	case ProviderOpenAI:
		opts = append(opts,
			option.WithBaseURL(c.BaseURL),
			option.WithAPIKey(key),
		)
	default:
		return nil, fmt.Errorf("openai: unknown provider %q", c.Provider)
	}
	return opts, nil
}

func newClient(conn Connection) (openai.Client, error) {
	opts, err := conn.RequestOptions()
	if err != nil {
		return openai.Client{}, err
	}
	return openai.NewClient(opts...), nil
}
