package catalog

import "stone-catalog-service/internal/domain"

// SpecLookup finds a furniture specification row by product name. The lookup
// is expected to be case and whitespace insensitive.
type SpecLookup interface {
	Lookup(productName string) (domain.FurnitureSpec, bool)
}

// expectedProductType maps a normalized grouping name to the product type a
// specification row must declare to be trusted for that grouping.
var expectedProductType = map[string]string{
	"coffee table":   "Table",
	"console table":  "Table",
	"dining table":   "Table",
	"side table":     "Table",
	"center table":   "Table",
	"pedestal":       "Wash Basin",
	"countertop":     "Wash Basin",
	"benches":        "Bench",
	"flower pots":    "Flower Pot",
	"water fountain": "Water Fountain",
	"bowls":          "Bowl",
	"urli":           "Urli",
	"sculpture":      "Sculpture",
}

// ExpectedProductType returns the product type required for grouping, if the
// grouping is type-checked at all.
func ExpectedProductType(grouping string) (string, bool) {
	t, ok := expectedProductType[Normalize(grouping)]
	return t, ok
}

// ResolvePrice decides whether a furniture product is purchasable and at what
// INR price. A name match alone is not enough: when the grouping has an
// expected product type the row must declare it, otherwise two unrelated
// pieces sharing a name would share a price. Anything ambiguous fails closed.
func ResolvePrice(specs SpecLookup, productName, grouping string) (*int64, bool) {
	if specs == nil {
		return nil, false
	}
	spec, ok := specs.Lookup(productName)
	if !ok || spec.PriceINR == nil {
		return nil, false
	}
	if expected, ok := ExpectedProductType(grouping); ok && spec.ProductType != expected {
		return nil, false
	}
	price := *spec.PriceINR
	return &price, true
}
