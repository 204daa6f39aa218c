package domain

import "time"

// Top-level catalog categories. The set is fixed; asset folders never add to it.
const (
	CategoryFurniture = "furniture"
	CategorySlabs     = "slabs"
)

// Category is a top-level grouping of the catalog (Furniture, Slabs).
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory is either a leaf holding Products or an internal node holding
// nested Subcategories. The catalog builder never populates both.
type Subcategory struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Products      []Product     `json:"products,omitempty"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// Product is a sellable catalog entry derived from asset folders.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`    // CategoryFurniture or CategorySlabs
	Subcategory  string   `json:"subcategory"` // slug of the immediate parent grouping
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Images       []string `json:"images"`
	SortedImages []string `json:"sortedImages,omitempty"` // precomputed hero-first ordering
	PriceINR     *int64   `json:"priceINR,omitempty"`     // nil means price on request
	Available    bool     `json:"available"`
	HasVideo     bool     `json:"hasVideo,omitempty"` // furniture only; a missing video is tolerated by clients
}

// FurnitureSpec is one row of the furniture specification side-table.
// Rows are curated separately from the asset folders and joined by name.
type FurnitureSpec struct {
	Name        string `json:"name" validate:"required,max=255"`
	ProductType string `json:"product" validate:"required,max=100"`
	PriceINR    *int64 `json:"priceINR,omitempty" validate:"omitempty,gt=0"`
	Dimensions  string `json:"dimensions,omitempty"`
	Material    string `json:"material,omitempty"`
	Finish      string `json:"finish,omitempty"`
	EtsyURL     string `json:"etsyUrl,omitempty" validate:"omitempty,url"`
}

// Exchange rate sources, reported back to clients for diagnostics.
const (
	RateSourceMemory       = "memory"
	RateSourceCache        = "cache"
	RateSourceAPI          = "api"
	RateSourceStaleCache   = "stale_cache_fallback"
	RateSourceStaleOnError = "stale_error_fallback"
	RateSourceHardcoded    = "hardcoded_fallback"
)

// ExchangeRates maps currency codes to "1 Base = X code".
type ExchangeRates struct {
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
	LastUpdated time.Time          `json:"lastUpdated"`
	Source      string             `json:"source"`
}

// Clone returns a deep copy so callers can't mutate a cached table.
func (r *ExchangeRates) Clone() *ExchangeRates {
	if r == nil {
		return nil
	}
	out := *r
	out.Rates = make(map[string]float64, len(r.Rates))
	for k, v := range r.Rates {
		out.Rates[k] = v
	}
	return &out
}
