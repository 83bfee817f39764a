package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedSourceListAll(t *testing.T) {
	t.Parallel()

	products, err := Embedded().ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(products) != 15 {
		t.Fatalf("len(products) = %d, want 15", len(products))
	}
	if products[0].ID != "dye-001" {
		t.Fatalf("products[0].ID = %q, want dye-001", products[0].ID)
	}
}

func TestFileSourceListAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `[{"id":"dye-100","name":"Vat Blue 1","type":"Vat dye","category":"vat","price":960,"in_stock":true}]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	source, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource error: %v", err)
	}

	products, err := source.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(products) != 1 || products[0].ID != "dye-100" {
		t.Fatalf("products = %#v, want one dye-100 record", products)
	}
}

func TestFileSourceRejectsMissingPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFileSource("  "); err == nil {
		t.Fatal("NewFileSource accepted blank path")
	}
}

func TestFileSourceBadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	source, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource error: %v", err)
	}
	if _, err := source.ListAll(context.Background()); err == nil {
		t.Fatal("ListAll accepted malformed catalog")
	}
}
