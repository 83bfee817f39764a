package catalog

import (
	"fmt"
	"strings"
)

// searchResultLimit caps search hits before they reach any menu rendering.
const searchResultLimit = 10

// Index is a read-only queryable view over catalog records.
//
// It is built once from a Source and safe for concurrent readers; catalog
// definition order is the stable display order for every query.
type Index struct {
	products []Product
	byID     map[string]int
}

// NewIndex validates the given records and builds lookup structures.
func NewIndex(products []Product) (*Index, error) {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog record %d has an empty id", i)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("catalog record %q has an empty name", id)
		}
		if strings.TrimSpace(p.Category) == "" {
			return nil, fmt.Errorf("catalog record %q has an empty category", id)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog record %q has a negative price", id)
		}
		if _, exists := byID[id]; exists {
			return nil, fmt.Errorf("duplicate catalog id %q", id)
		}
		byID[id] = i
	}

	stored := make([]Product, len(products))
	copy(stored, products)

	return &Index{products: stored, byID: byID}, nil
}

// Len reports the number of catalog records.
func (ix *Index) Len() int {
	return len(ix.products)
}

// ByID returns the product with the exact id. Absence is not an error;
// callers decide how to react.
func (ix *Index) ByID(id string) (Product, bool) {
	i, ok := ix.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, false
	}
	return ix.products[i], true
}

// ByCategory returns all products in the category, in catalog order.
// An unknown category yields an empty slice, not an error.
func (ix *Index) ByCategory(category string) []Product {
	category = strings.ToLower(strings.TrimSpace(category))
	var matches []Product
	for _, p := range ix.products {
		if strings.ToLower(p.Category) == category {
			matches = append(matches, p)
		}
	}
	return matches
}

// Categories returns the category groups in first-seen catalog order.
func (ix *Index) Categories() []CategorySummary {
	seen := make(map[string]int)
	var summaries []CategorySummary
	for _, p := range ix.products {
		key := strings.ToLower(p.Category)
		if i, ok := seen[key]; ok {
			summaries[i].ProductCount++
			continue
		}
		seen[key] = len(summaries)
		summaries = append(summaries, CategorySummary{Key: key, ProductCount: 1})
	}
	return summaries
}

// Search performs a case-insensitive substring match against name, type and
// CAS number. An empty query matches nothing, never "all". Results keep
// catalog order and are capped to the first 10; they are not ranked by
// relevance.
func (ix *Index) Search(query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var matches []Product
	for _, p := range ix.products {
		if !productMatches(p, query) {
			continue
		}
		matches = append(matches, p)
		if len(matches) == searchResultLimit {
			break
		}
	}
	return matches
}

func productMatches(p Product, loweredQuery string) bool {
	for _, field := range []string{p.Name, p.Type, p.CASNumber} {
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), loweredQuery) {
			return true
		}
	}
	return false
}
