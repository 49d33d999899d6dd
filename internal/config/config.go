package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds connection details shared by embedder and generator.
type OpenAIConfig struct {
	Provider    string `yaml:"provider"` // openai or azure
	BaseURL     string `yaml:"base_url,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	APIVersion  string `yaml:"api_version,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig configures the query embedder.
type EmbedderConfig struct {
	Type       string       `yaml:"type"`
	Model      string       `yaml:"model"`
	Dimensions int          `yaml:"dimensions,omitempty"`
	OpenAI     OpenAIConfig `yaml:"openai"`
}

// GeneratorConfig configures the summary generator.
type GeneratorConfig struct {
	Type        string       `yaml:"type"`
	Model       string       `yaml:"model"`
	MaxTokens   int          `yaml:"max_tokens"`
	Temperature *float64     `yaml:"temperature,omitempty"`
	OpenAI      OpenAIConfig `yaml:"openai"`
}

// AzureSearchConfig contains connection details for an Azure AI Search index.
type AzureSearchConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Index       string `yaml:"index"`
	APIKeyEnv   string `yaml:"api_key_env"`
	APIVersion  string `yaml:"api_version,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	Collection  string `yaml:"collection"`
	// VectorName selects a named vector; empty searches the collection's single vector.
	VectorName  string `yaml:"vector_name,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// MemoryConfig points at an exported index snapshot.
type MemoryConfig struct {
	Snapshot string `yaml:"snapshot"`
}

// VectorStoreConfig selects and configures the vector search backend.
type VectorStoreConfig struct {
	Type        string             `yaml:"type"`
	AzureSearch *AzureSearchConfig `yaml:"azure_search,omitempty"`
	Qdrant      *QdrantConfig      `yaml:"qdrant,omitempty"`
	Memory      *MemoryConfig      `yaml:"memory,omitempty"`
}

// BlobConfig locates an Azure Blob Storage container.
type BlobConfig struct {
	ConnectionStringEnv string `yaml:"connection_string_env"`
	Container           string `yaml:"container"`
}

// BookEntry is one book of a catalog listed inline.
type BookEntry struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author,omitempty"`
	Filename string `yaml:"filename,omitempty"`
}

// CatalogConfig selects where the book list comes from.
type CatalogConfig struct {
	Type  string      `yaml:"type"` // dir, azblob or static
	Dir   string      `yaml:"dir,omitempty"`
	Blob  *BlobConfig `yaml:"azblob,omitempty"`
	Books []BookEntry `yaml:"books,omitempty"`
}

// RetrievalConfig tunes the multi-query retrieval.
type RetrievalConfig struct {
	TopK            int    `yaml:"top_k"`
	KNN             int    `yaml:"knn"`
	VectorField     string `yaml:"vector_field"`
	ChunkField      string `yaml:"chunk_field"`
	PacingMillis    *int   `yaml:"pacing_ms,omitempty"` // 0 disables pacing
	MaxContentChars int    `yaml:"max_content_chars"`
}

// Pacing returns the delay between successive queries.
func (r RetrievalConfig) Pacing() time.Duration {
	if r.PacingMillis == nil {
		return 0
	}
	return time.Duration(*r.PacingMillis) * time.Millisecond
}

// SummaryConfig holds defaults for generated summaries.
type SummaryConfig struct {
	Language     string `yaml:"language"`
	TemplatePath string `yaml:"template_path,omitempty"`
	OutputDir    string `yaml:"output_dir"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Summary     SummaryConfig     `yaml:"summary"`
	Log         LogConfig         `yaml:"log"`
}

const (
	defaultFileName = "booksum.yaml"
	appDirName      = "booksum"
)

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and fills in defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./booksum.yaml first, then ~/.config/booksum/config.yaml.
// If neither exists, it writes defaults to ~/.config/booksum/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat(defaultFileName); err == nil {
		cfg, err := Load(defaultFileName)
		return cfg, defaultFileName, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName), nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			Type:   "openai",
			OpenAI: OpenAIConfig{Provider: "azure", APIKeyEnv: "AZURE_OPENAI_KEY"},
		},
		Generator: GeneratorConfig{
			Type:   "openai",
			OpenAI: OpenAIConfig{Provider: "azure", APIKeyEnv: "AZURE_OPENAI_KEY"},
		},
		VectorStore: VectorStoreConfig{
			Type:        "azure_search",
			AzureSearch: &AzureSearchConfig{APIKeyEnv: "AZURE_SEARCH_ADMIN_KEY"},
		},
		Catalog: CatalogConfig{
			Type: "azblob",
			Blob: &BlobConfig{ConnectionStringEnv: "AZURE_STORAGE_CONNECTION_STRING"},
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-large"
	}
	applyOpenAIDefaults(&cfg.Embedder.OpenAI)

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "openai"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4.1"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 4096
	}
	if cfg.Generator.Temperature == nil {
		t := 0.2
		cfg.Generator.Temperature = &t
	}
	applyOpenAIDefaults(&cfg.Generator.OpenAI)

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "azure_search"
	}
	if cfg.VectorStore.Type == "azure_search" && cfg.VectorStore.AzureSearch == nil {
		cfg.VectorStore.AzureSearch = &AzureSearchConfig{}
	}
	if as := cfg.VectorStore.AzureSearch; as != nil {
		if as.APIKeyEnv == "" {
			as.APIKeyEnv = "AZURE_SEARCH_ADMIN_KEY"
		}
		if as.TimeoutSecs == 0 {
			as.TimeoutSecs = 30
		}
	}
	if q := cfg.VectorStore.Qdrant; q != nil && q.TimeoutSecs == 0 {
		q.TimeoutSecs = 15
	}

	if cfg.Catalog.Type == "" {
		cfg.Catalog.Type = "dir"
	}
	if cfg.Catalog.Type == "dir" && cfg.Catalog.Dir == "" {
		cfg.Catalog.Dir = "."
	}
	if cfg.Catalog.Type == "azblob" && cfg.Catalog.Blob == nil {
		cfg.Catalog.Blob = &BlobConfig{}
	}
	if b := cfg.Catalog.Blob; b != nil && b.ConnectionStringEnv == "" {
		b.ConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"
	}

	r := &cfg.Retrieval
	if r.TopK == 0 {
		r.TopK = 100
	}
	if r.KNN == 0 {
		r.KNN = 50
	}
	if r.VectorField == "" {
		r.VectorField = "text_vector"
	}
	if r.ChunkField == "" {
		r.ChunkField = "chunk"
	}
	if r.PacingMillis == nil {
		ms := 200
		r.PacingMillis = &ms
	}
	if r.MaxContentChars == 0 {
		r.MaxContentChars = 15000
	}

	if cfg.Summary.Language == "" {
		cfg.Summary.Language = "English"
	}
	if cfg.Summary.OutputDir == "" {
		cfg.Summary.OutputDir = "summaries"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func applyOpenAIDefaults(c *OpenAIConfig) {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.APIKeyEnv == "" {
		if c.Provider == "azure" {
			c.APIKeyEnv = "AZURE_OPENAI_KEY"
		} else {
			c.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if c.Provider == "azure" && c.APIVersion == "" {
		c.APIVersion = "2024-12-01-preview"
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
}

// Validate reports settings that are required by the selected backends.
func (c *AppConfig) Validate() error {
	var problems []string
	for name, oc := range map[string]OpenAIConfig{"embedder": c.Embedder.OpenAI, "generator": c.Generator.OpenAI} {
		if oc.Provider == "azure" && oc.Endpoint == "" {
			problems = append(problems, name+".openai.endpoint is required for azure")
		}
	}
	switch c.VectorStore.Type {
	case "azure_search":
		if as := c.VectorStore.AzureSearch; as == nil || as.Endpoint == "" || as.Index == "" {
			problems = append(problems, "vector_store.azure_search.endpoint and index are required")
		}
	case "qdrant":
		if q := c.VectorStore.Qdrant; q == nil || q.URL == "" || q.Collection == "" {
			problems = append(problems, "vector_store.qdrant.url and collection are required")
		}
	case "memory":
		if m := c.VectorStore.Memory; m == nil || m.Snapshot == "" {
			problems = append(problems, "vector_store.memory.snapshot is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown vector store %q", c.VectorStore.Type))
	}
	switch c.Catalog.Type {
	case "dir":
	case "azblob":
		if c.Catalog.Blob == nil || c.Catalog.Blob.Container == "" {
			problems = append(problems, "catalog.azblob.container is required")
		}
	case "static":
		if len(c.Catalog.Books) == 0 {
			problems = append(problems, "catalog.books must list at least one book")
		}
		for i, b := range c.Catalog.Books {
			if strings.TrimSpace(b.Title) == "" {
				problems = append(problems, fmt.Sprintf("catalog.books[%d].title is required", i))
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown catalog %q", c.Catalog.Type))
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

// ApplyEnv fills settings left empty in the file from the environment
// variables used by .env files of existing deployments.
func (c *AppConfig) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = getenv(key)
		}
	}
	for _, oc := range []*OpenAIConfig{&c.Embedder.OpenAI, &c.Generator.OpenAI} {
		if oc.Provider == "azure" {
			set(&oc.Endpoint, "AZURE_OPENAI_ENDPOINT")
			if v := getenv("AZURE_OPENAI_VERSION"); v != "" {
				oc.APIVersion = v
			}
		}
	}
	if v := getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedder.Model = v
	}
	if v := getenv("CHAT_MODEL"); v != "" {
		c.Generator.Model = v
	}
	if as := c.VectorStore.AzureSearch; as != nil {
		set(&as.Endpoint, "AZURE_SEARCH_SERVICE_ENDPOINT")
		set(&as.Index, "AZURE_SEARCH_INDEX_NAME")
	}
	if b := c.Catalog.Blob; b != nil {
		set(&b.Container, "CONTAINER_NAME")
	}
}
