package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"booksum/internal/catalog"
	"booksum/internal/config"
	"booksum/internal/domain"
	"booksum/internal/llm/openai"
	"booksum/internal/logger"
	"booksum/internal/prompt"
	"booksum/internal/retrieval"
	"booksum/internal/service"
	"booksum/internal/vectorstore/azuresearch"
	"booksum/internal/vectorstore/memory"
	"booksum/internal/vectorstore/qdrant"
)

// AppContext holds the components shared by every command.
type AppContext struct {
	Config     *config.AppConfig
	ConfigPath string
	Logger     *slog.Logger
	Catalog    domain.CatalogSource
	Aggregator *retrieval.Aggregator
	Service    *service.SummaryService

	closers []io.Closer
}

type appOptions struct {
	// logToFile keeps log output off the terminal while the TUI owns it.
	logToFile bool
	// offline skips the embedder, vector store and generator.
	offline  bool
	progress retrieval.ProgressFunc
}

// loadConfig reads .env and the YAML config named by the global flags.
func loadConfig(cmd *cli.Command) (*config.AppConfig, string, error) {
	if envFile := cmd.String("env"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	var (
		cfg  *config.AppConfig
		path = cmd.String("config")
		err  error
	)
	if path == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, path, nil
}

func newAppContext(ctx context.Context, cmd *cli.Command, opts appOptions) (*AppContext, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !opts.offline {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if opts.logToFile && logCfg.File == "" {
		if dir, err := config.Dir(); err == nil {
			logCfg.File = filepath.Join(dir, "booksum.log")
		}
	}
	log, closer, err := logger.Open(logCfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	app := &AppContext{Config: cfg, ConfigPath: path, Logger: log, closers: []io.Closer{closer}}

	app.Catalog, err = buildCatalog(cfg.Catalog)
	if err != nil {
		app.Close()
		return nil, err
	}
	if opts.offline {
		return app, nil
	}

	emb, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		app.Close()
		return nil, err
	}
	searcher, err := buildSearcher(cfg.VectorStore)
	if err != nil {
		app.Close()
		return nil, err
	}
	gen, err := buildGenerator(cfg.Generator)
	if err != nil {
		app.Close()
		return nil, err
	}

	r := cfg.Retrieval
	app.Aggregator = retrieval.NewAggregator(emb, searcher,
		retrieval.WithTopK(r.TopK),
		retrieval.WithKNN(r.KNN),
		retrieval.WithFields(r.VectorField, r.ChunkField),
		retrieval.WithPacing(r.Pacing()),
		retrieval.WithProgress(opts.progress),
		retrieval.WithLogger(log),
	)
	app.Service = service.NewSummaryService(app.Aggregator, gen,
		service.WithContentLimit(r.MaxContentChars),
		service.WithLogger(log),
	)
	log.Debug("components assembled",
		"config", path,
		"embedder", emb.Name(),
		"vectorStore", cfg.VectorStore.Type,
		"catalog", cfg.Catalog.Type,
	)
	return app, nil
}

// Close releases the log file and any other held resources.
func (a *AppContext) Close() {
	for _, c := range a.closers {
		if c != nil {
			_ = c.Close()
		}
	}
}

// Template returns the configured template file, or the default for language.
// A template file that leaves out a placeholder is used as written, with a warning.
func (a *AppContext) Template(language string) (string, error) {
	tmpl, err := prompt.LoadTemplate(a.Config.Summary.TemplatePath, language)
	if err != nil {
		return "", err
	}
	if missing := prompt.MissingPlaceholders(tmpl); len(missing) > 0 {
		a.Logger.Warn("template does not use every placeholder",
			"path", a.Config.Summary.TemplatePath,
			"missing", missing,
		)
	}
	return tmpl, nil
}

func buildCatalog(cfg config.CatalogConfig) (domain.CatalogSource, error) {
	switch cfg.Type {
	case "dir", "":
		return catalog.NewDirSource(cfg.Dir), nil
	case "azblob":
		if cfg.Blob == nil {
			return nil, fmt.Errorf("azblob catalog config missing")
		}
		return catalog.NewBlobSource(catalog.BlobConfig{
			ConnectionStringEnv: cfg.Blob.ConnectionStringEnv,
			Container:           cfg.Blob.Container,
		})
	case "static":
		books := make(catalog.StaticSource, 0, len(cfg.Books))
		for _, b := range cfg.Books {
			books = append(books, domain.BookInfo{Filename: b.Filename, Title: b.Title, Author: b.Author})
		}
		return books, nil
	default:
		return nil, fmt.Errorf("unknown catalog: %s", cfg.Type)
	}
}

func connection(c config.OpenAIConfig) openai.Connection {
	return openai.Connection{
		Provider:   c.Provider,
		BaseURL:    c.BaseURL,
		Endpoint:   c.Endpoint,
		APIVersion: c.APIVersion,
		APIKeyEnv:  c.APIKeyEnv,
		Timeout:    time.Duration(c.TimeoutSecs) * time.Second,
		MaxRetries: c.MaxRetries,
	}
}

func buildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "openai", "":
		emb, err := openai.NewEmbedder(openai.EmbedderConfig{
			Connection: connection(cfg.OpenAI),
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func buildSearcher(cfg config.VectorStoreConfig) (domain.VectorSearcher, error) {
	switch cfg.Type {
	case "azure_search":
		if cfg.AzureSearch == nil {
			return nil, fmt.Errorf("azure_search config missing")
		}
		return azuresearch.NewSearcher(azuresearch.Config{
			Endpoint:   cfg.AzureSearch.Endpoint,
			Index:      cfg.AzureSearch.Index,
			APIKeyEnv:  cfg.AzureSearch.APIKeyEnv,
			APIVersion: cfg.AzureSearch.APIVersion,
			Timeout:    time.Duration(cfg.AzureSearch.TimeoutSecs) * time.Second,
		})
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewSearcher(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKeyEnv:  cfg.Qdrant.APIKeyEnv,
			Collection: cfg.Qdrant.Collection,
			VectorName: cfg.Qdrant.VectorName,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		})
	case "memory":
		if cfg.Memory == nil {
			return nil, fmt.Errorf("memory config missing")
		}
		return memory.Load(cfg.Memory.Snapshot)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

func buildGenerator(cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "openai", "":
		temp := openai.DefaultTemperature
		if cfg.Temperature != nil {
			temp = *cfg.Temperature
		}
		gen, err := openai.NewGenerator(openai.GeneratorConfig{
			Connection:  connection(cfg.OpenAI),
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: temp,
		})
		if err != nil {
			return nil, fmt.Errorf("openai generator init failed: %w", err)
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}

// findBook resolves title/author criteria to exactly one catalog entry. A
// title that matches no entry is used as-is with the given author.
func findBook(books []domain.BookInfo, title, author string) (domain.BookInfo, error) {
	matches := catalog.Search(books, title, author)
	switch {
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) == 0:
		if title == "" {
			return domain.BookInfo{}, fmt.Errorf("no book matches author %q", author)
		}
		return domain.BookInfo{Title: title, Author: author}, nil
	}
	for _, m := range matches {
		if strings.EqualFold(m.Title, title) && (author == "" || strings.EqualFold(m.Author, author)) {
			return m, nil
		}
	}
	return domain.BookInfo{}, fmt.Errorf("%d books match %q / %q, narrow the search", len(matches), title, author)
}
