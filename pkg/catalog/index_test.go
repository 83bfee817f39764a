package catalog

import (
	"context"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()

	ix, err := Load(context.Background(), Embedded())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return ix
}

func TestNewIndexRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	products := []Product{
		{ID: "dye-001", Name: "Reactive Red 120", Category: "reactive"},
		{ID: "dye-001", Name: "Reactive Black 5", Category: "reactive"},
	}

	if _, err := NewIndex(products); err == nil {
		t.Fatal("NewIndex accepted duplicate ids")
	}
}

func TestNewIndexRejectsEmptyFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		product Product
	}{
		{"empty id", Product{Name: "x", Category: "reactive"}},
		{"empty name", Product{ID: "dye-001", Category: "reactive"}},
		{"empty category", Product{ID: "dye-001", Name: "x"}},
		{"negative price", Product{ID: "dye-001", Name: "x", Category: "reactive", Price: -1}},
	}

	for _, tc := range cases {
		if _, err := NewIndex([]Product{tc.product}); err == nil {
			t.Fatalf("NewIndex accepted record with %s", tc.name)
		}
	}
}

func TestByIDExactLookup(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	product, ok := ix.ByID("dye-001")
	if !ok {
		t.Fatal("ByID(dye-001) not found")
	}
	if product.Name != "Reactive Red 120" {
		t.Fatalf("product.Name = %q, want Reactive Red 120", product.Name)
	}

	if _, ok := ix.ByID("dye-999"); ok {
		t.Fatal("ByID(dye-999) unexpectedly found")
	}
}

func TestByCategoryKeepsCatalogOrder(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	products := ix.ByCategory("reactive")
	if len(products) != 5 {
		t.Fatalf("len(products) = %d, want 5", len(products))
	}
	if products[0].ID != "dye-001" || products[4].ID != "dye-005" {
		t.Fatalf("products out of catalog order: first=%s last=%s", products[0].ID, products[4].ID)
	}
}

func TestByCategoryUnknownYieldsEmpty(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	if products := ix.ByCategory("vat"); len(products) != 0 {
		t.Fatalf("ByCategory(vat) = %d products, want 0", len(products))
	}
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	summaries := ix.Categories()
	want := []string{"reactive", "disperse", "acid", "direct", "pigment"}
	if len(summaries) != len(want) {
		t.Fatalf("len(summaries) = %d, want %d", len(summaries), len(want))
	}
	for i, key := range want {
		if summaries[i].Key != key {
			t.Fatalf("summaries[%d].Key = %q, want %q", i, summaries[i].Key, key)
		}
	}
	if summaries[0].ProductCount != 5 {
		t.Fatalf("reactive count = %d, want 5", summaries[0].ProductCount)
	}
}

func TestSearchEmptyQueryMatchesNothing(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	if hits := ix.Search(""); len(hits) != 0 {
		t.Fatalf("Search(\"\") = %d hits, want 0", len(hits))
	}
	if hits := ix.Search("   "); len(hits) != 0 {
		t.Fatalf("Search(blank) = %d hits, want 0", len(hits))
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	lower := ix.Search("reactive")
	varied := ix.Search("REACTIVE")
	if len(lower) == 0 {
		t.Fatal("Search(reactive) returned no hits")
	}
	if len(lower) != len(varied) {
		t.Fatalf("case-varied search differs: %d vs %d", len(lower), len(varied))
	}
	for i := range lower {
		if lower[i].ID != varied[i].ID {
			t.Fatalf("hit %d differs: %s vs %s", i, lower[i].ID, varied[i].ID)
		}
	}
}

func TestSearchMatchesCASNumber(t *testing.T) {
	t.Parallel()
	ix := testIndex(t)

	hits := ix.Search("61951-82-4")
	if len(hits) != 1 || hits[0].ID != "dye-001" {
		t.Fatalf("Search by CAS = %v, want dye-001", hits)
	}
}

func TestSearchCapsResults(t *testing.T) {
	t.Parallel()

	products := make([]Product, 0, 15)
	for i := 0; i < 15; i++ {
		products = append(products, Product{
			ID:       string(rune('a' + i)),
			Name:     "Indigo Shade",
			Category: "vat",
		})
	}
	ix, err := NewIndex(products)
	if err != nil {
		t.Fatalf("NewIndex error: %v", err)
	}

	if hits := ix.Search("indigo"); len(hits) != searchResultLimit {
		t.Fatalf("len(hits) = %d, want %d", len(hits), searchResultLimit)
	}
}
