package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"booksum/internal/domain"
)

// DirSource lists books stored under a local directory.
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource { return &DirSource{root: root} }

func (s *DirSource) ListBooks(ctx context.Context) ([]domain.BookInfo, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !IsDocument(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}
	return FromNames(names), nil
}

// BlobSource lists books stored in an Azure Blob Storage container.
type BlobSource struct {
	client    *azblob.Client
	container string
}

type BlobConfig struct {
	ConnectionStringEnv string
	Container           string
}

func NewBlobSource(cfg BlobConfig) (*BlobSource, error) {
	if cfg.Container == "" {
		return nil, errors.New("catalog: blob container is required")
	}
	conn := os.Getenv(cfg.ConnectionStringEnv)
	if conn == "" {
		return nil, fmt.Errorf("catalog: missing connection string in env %s", cfg.ConnectionStringEnv)
	}
	client, err := azblob.NewClientFromConnectionString(conn, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: blob client: %w", err)
	}
	return &BlobSource{client: client, container: cfg.Container}, nil
}

func (s *BlobSource) ListBooks(ctx context.Context) ([]domain.BookInfo, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(s.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list container %s: %w", s.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			names = append(names, *item.Name)
		}
	}
	return FromNames(names), nil
}

// StaticSource serves a fixed list, such as the books listed under
// catalog.books in the config file.
type StaticSource []domain.BookInfo

func (s StaticSource) ListBooks(ctx context.Context) ([]domain.BookInfo, error) {
	out := make([]domain.BookInfo, len(s))
	copy(out, s)
	return out, nil
}

var (
	_ domain.CatalogSource = (*DirSource)(nil)
	_ domain.CatalogSource = (*BlobSource)(nil)
	_ domain.CatalogSource = StaticSource(nil)
)
