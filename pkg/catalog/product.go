package catalog

// Product is one immutable catalog record.
//
// Records are sourced externally and never mutated through the dialog; the
// JSON tags match the catalog file format consumed by FileSource.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Application string  `json:"application"`
	Packaging   string  `json:"packaging"`
	Price       float64 `json:"price"`
	MOQ         string  `json:"moq"`
	Description string  `json:"description"`
	CASNumber   string  `json:"cas_number,omitempty"`
	InStock     bool    `json:"in_stock"`
}

// CategorySummary describes one category group derived from catalog order.
type CategorySummary struct {
	Key          string
	ProductCount int
}
