package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed catalog.json
var embeddedFS embed.FS

// Source is a read-only provider of catalog records.
//
// The dialog core treats the catalog as read-mostly: it loads all records at
// startup and re-derives category groupings on demand instead of caching them.
type Source interface {
	ListAll(ctx context.Context) ([]Product, error)
}

// FileSource loads catalog records from a JSON file on disk.
type FileSource struct {
	path string
}

// NewFileSource returns a source backed by the given catalog file path.
func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("catalog file path is required")
	}
	return &FileSource{path: path}, nil
}

// ListAll reads and decodes every record from the catalog file.
func (s *FileSource) ListAll(_ context.Context) ([]Product, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return decodeProducts(content)
}

// EmbeddedSource serves the compiled-in sample catalog. It backs local runs
// and tests when no catalog file is configured.
type EmbeddedSource struct{}

// Embedded returns the compiled-in catalog source.
func Embedded() *EmbeddedSource {
	return &EmbeddedSource{}
}

// ListAll decodes the embedded sample catalog.
func (s *EmbeddedSource) ListAll(_ context.Context) ([]Product, error) {
	content, err := embeddedFS.ReadFile("catalog.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return decodeProducts(content)
}

func decodeProducts(content []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(content, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return products, nil
}

// Load builds an Index from a source in one step.
func Load(ctx context.Context, source Source) (*Index, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source is required")
	}

	products, err := source.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return NewIndex(products)
}
