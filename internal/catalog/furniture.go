package catalog

import (
	"regexp"
	"strings"

	"stone-catalog-service/internal/domain"
)

const furnitureAnchor = "furnitures"

var washBasinVariant = regexp.MustCompile(`(?i)(wash\s*basins?|washbasins)`)

// Asset is a logical asset path paired with the URL it resolves to.
type Asset struct {
	Path string
	URL  string
}

// furnitureGroup is one entry of the merchandising order. Groups with Children
// are two-level (main/sub/product); the rest are flat (main/product).
type furnitureGroup struct {
	Main     string
	Children []string
}

// furnitureLayout is the fixed merchandising order of the furniture category.
// Folder depth alone can't tell a variant from a brand, so the split is
// declared here rather than inferred. Mains not listed are not published.
var furnitureLayout = []furnitureGroup{
	{Main: "Tables", Children: []string{"Coffee Table", "Console Table", "Dining Table", "Side Table", "Center Table"}},
	{Main: "Wash Basins", Children: []string{"Pedestal", "Countertop"}},
	{Main: "Benches"},
	{Main: "Flower Pots"},
	{Main: "Water Fountain"},
	{Main: "Bowls"},
	{Main: "Urli"},
	{Main: "Sculptures"},
	{Main: "Others"},
}

func isTwoLevel(main string) bool {
	for _, g := range furnitureLayout {
		if g.Main == main {
			return len(g.Children) > 0
		}
	}
	return false
}

type furnitureProduct struct {
	id     string
	name   string
	images []string
}

// productSet keeps products in discovery order.
type productSet struct {
	order []string
	byKey map[string]*furnitureProduct
}

func (s *productSet) get(key string, create func() *furnitureProduct) *furnitureProduct {
	if p, ok := s.byKey[key]; ok {
		return p
	}
	p := create()
	s.byKey[key] = p
	s.order = append(s.order, key)
	return p
}

// furnitureMain normalizes the folder right below the anchor.
func furnitureMain(raw string) string {
	decoded := Decode(raw)
	if washBasinVariant.MatchString(decoded) {
		return "Wash Basins"
	}
	return ToTitle(decoded)
}

// BuildFurniture folds furniture assets into the Furniture subcategory tree.
// Paths outside the anchor folder, non-image files and folders shallower than
// a product are skipped.
func BuildFurniture(assets []Asset, specs SpecLookup) []domain.Subcategory {
	// main -> sub ("" for flat mains) -> products
	tree := make(map[string]map[string]*productSet)

	for _, a := range assets {
		parts := splitPath(a.Path)
		i := indexOf(parts, furnitureAnchor)
		if i == -1 || i+1 >= len(parts) {
			continue
		}
		if !IsImageFile(Decode(parts[len(parts)-1])) {
			continue
		}

		main := furnitureMain(parts[i+1])
		var sub, product string
		if isTwoLevel(main) {
			if len(parts) < i+5 {
				continue
			}
			sub, product = ToTitle(parts[i+2]), ToTitle(parts[i+3])
		} else {
			if len(parts) < i+4 {
				continue
			}
			product = ToTitle(parts[i+2])
		}
		if product == "" {
			continue
		}

		subs, ok := tree[main]
		if !ok {
			subs = make(map[string]*productSet)
			tree[main] = subs
		}
		set, ok := subs[sub]
		if !ok {
			set = &productSet{byKey: make(map[string]*furnitureProduct)}
			subs[sub] = set
		}
		subSlug := sub
		if subSlug == "" {
			subSlug = "root"
		}
		p := set.get(product, func() *furnitureProduct {
			return &furnitureProduct{
				id:   joinSlugs(domain.CategoryFurniture, main, subSlug, product),
				name: product,
			}
		})
		p.images = appendUnique(p.images, a.URL)
	}

	var result []domain.Subcategory
	for _, g := range furnitureLayout {
		subs, ok := tree[g.Main]
		if !ok {
			continue
		}
		if len(g.Children) == 0 {
			products := assembleFurniture(subs[""], g.Main, specs)
			if len(products) > 0 {
				result = append(result, domain.Subcategory{ID: ToSlug(g.Main), Name: g.Main, Products: products})
			}
			continue
		}

		var children []domain.Subcategory
		for _, child := range g.Children {
			products := assembleFurniture(subs[ToTitle(child)], child, specs)
			if len(products) > 0 {
				children = append(children, domain.Subcategory{ID: ToSlug(child), Name: child, Products: products})
			}
		}
		if len(children) > 0 {
			result = append(result, domain.Subcategory{ID: ToSlug(g.Main), Name: g.Main, Subcategories: children})
		}
	}
	return result
}

func assembleFurniture(set *productSet, grouping string, specs SpecLookup) []domain.Product {
	if set == nil {
		return nil
	}
	products := make([]domain.Product, 0, len(set.order))
	for _, key := range set.order {
		p := set.byKey[key]
		if len(p.images) == 0 {
			continue
		}
		price, available := ResolvePrice(specs, p.name, grouping)
		images := append([]string(nil), p.images...)
		products = append(products, domain.Product{
			ID:           p.id,
			Name:         p.name,
			Category:     domain.CategoryFurniture,
			Subcategory:  ToSlug(grouping),
			Description:  p.name + " - " + grouping,
			Image:        PickMainImage(images),
			Images:       images,
			SortedImages: SortImagesByPriority(images, domain.CategoryFurniture),
			PriceINR:     price,
			Available:    available,
			HasVideo:     true,
		})
	}
	return products
}

// splitPath splits a slash path into its non-empty segments.
func splitPath(p string) []string {
	raw := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	parts := raw[:0]
	for _, s := range raw {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func indexOf(parts []string, segment string) int {
	for i, p := range parts {
		if p == segment {
			return i
		}
	}
	return -1
}

func joinSlugs(parts ...string) string {
	slugs := make([]string, len(parts))
	for i, p := range parts {
		slugs[i] = ToSlug(p)
	}
	return strings.Join(slugs, "-")
}
