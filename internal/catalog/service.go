package catalog

import (
	"errors"
	"log"
	"strings"
	"sync"

	"stone-catalog-service/internal/domain"
)

// Predefined errors for catalog lookups
var (
	ErrProductNotFound  = errors.New("catalog: product not found")
	ErrCategoryNotFound = errors.New("catalog: category not found")
)

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Category    string
	Subcategory string
	Available   *bool
	Query       string
	Limit       int
	Offset      int
}

// Catalog owns the asset-driven category tree. The tree is built on first
// access and never changes afterwards; callers must treat returned slices as
// read-only.
type Catalog struct {
	furniture []Asset
	slabs     []string
	specs     SpecLookup

	once       sync.Once
	categories []domain.Category
	products   []domain.Product
	byID       map[string]int
}

// New creates a Catalog over a static asset path list. Furniture URLs are
// resolved up front; slab images stay as paths for lazy loading.
func New(paths []string, resolver Resolver, specs SpecLookup) *Catalog {
	c := &Catalog{specs: specs}
	for _, p := range paths {
		parts := splitPath(p)
		switch {
		case indexOf(parts, furnitureAnchor) != -1:
			c.furniture = append(c.furniture, Asset{Path: p, URL: resolver.Resolve(p)})
		case indexOf(parts, slabAnchor) != -1:
			c.slabs = append(c.slabs, p)
		}
	}
	return c
}

// Build assembles the category tree from scratch without touching the cache.
func (c *Catalog) Build() []domain.Category {
	return []domain.Category{
		{ID: domain.CategoryFurniture, Name: "Furniture", Subcategories: BuildFurniture(c.furniture, c.specs)},
		{ID: domain.CategorySlabs, Name: "Slabs", Subcategories: BuildSlabs(c.slabs)},
	}
}

// Categories returns the memoized category tree.
func (c *Catalog) Categories() []domain.Category {
	c.once.Do(func() {
		c.categories = c.Build()
		c.products = flattenProducts(c.categories)
		c.byID = make(map[string]int, len(c.products))
		for i, p := range c.products {
			if _, dup := c.byID[p.ID]; dup {
				log.Printf("WARN: duplicate product id %q in catalog, keeping first", p.ID)
				continue
			}
			c.byID[p.ID] = i
		}
		log.Printf("INFO: Catalog built: %d categories, %d products", len(c.categories), len(c.products))
	})
	return c.categories
}

// CategoryByID returns a top-level category.
func (c *Catalog) CategoryByID(id string) (domain.Category, error) {
	for _, cat := range c.Categories() {
		if cat.ID == id {
			return cat, nil
		}
	}
	return domain.Category{}, ErrCategoryNotFound
}

// Products returns every product in tree order.
func (c *Catalog) Products() []domain.Product {
	c.Categories()
	return c.products
}

// ProductByID looks a product up by its slug id.
func (c *Catalog) ProductByID(id string) (domain.Product, error) {
	c.Categories()
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return c.products[i], nil
}

// FindProducts filters the flattened product list and returns one page of
// results together with the total number of matches.
func (c *Catalog) FindProducts(f ProductFilter) ([]domain.Product, int) {
	query := Normalize(f.Query)
	var matched []domain.Product
	for _, p := range c.Products() {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Subcategory != "" && p.Subcategory != f.Subcategory {
			continue
		}
		if f.Available != nil && p.Available != *f.Available {
			continue
		}
		if query != "" && !strings.Contains(Normalize(p.Name), query) {
			continue
		}
		matched = append(matched, p)
	}

	total := len(matched)
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Product{}, total
	}
	end := total
	if f.Limit > 0 && f.Limit < total-offset {
		end = offset + f.Limit
	}
	return matched[offset:end], total
}

func flattenProducts(categories []domain.Category) []domain.Product {
	var out []domain.Product
	var walk func(subs []domain.Subcategory)
	walk = func(subs []domain.Subcategory) {
		for _, s := range subs {
			out = append(out, s.Products...)
			walk(s.Subcategories)
		}
	}
	for _, c := range categories {
		walk(c.Subcategories)
	}
	return out
}
