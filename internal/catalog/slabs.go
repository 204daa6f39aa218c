package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"stone-catalog-service/internal/domain"
)

const slabAnchor = "Collection"

// Stone categories with a known folder layout.
const (
	stoneGranite    = "Granite"
	stoneMarble     = "Marble"
	stoneOnyx       = "Onyx"
	stoneSandstone  = "Sandstone"
	stoneTravertine = "Travertine"
)

// stoneOrder is the display order of stone categories; others follow in
// discovery order.
var stoneOrder = []string{"granite", "marble", "onyx", "sandstone", "travertine"}

// notFoundMarkers flag placeholder folders left behind by the asset export.
var notFoundMarkers = []string{"not found", "notfound", "not fount"}

type slabImages struct {
	stand  []string
	others []string
}

func (s *slabImages) paths() []string {
	out := make([]string, 0, len(s.stand)+len(s.others))
	out = append(out, s.stand...)
	return append(out, s.others...)
}

// slabFolder keeps child folders in discovery order.
type slabFolder struct {
	order    []string
	products map[string]*slabImages
	groups   map[string]*slabFolder
}

func newSlabFolder() *slabFolder {
	return &slabFolder{products: make(map[string]*slabImages), groups: make(map[string]*slabFolder)}
}

func (f *slabFolder) product(name string) *slabImages {
	if p, ok := f.products[name]; ok {
		return p
	}
	p := &slabImages{}
	f.products[name] = p
	f.order = append(f.order, name)
	return p
}

func (f *slabFolder) group(name string) *slabFolder {
	if g, ok := f.groups[name]; ok {
		return g
	}
	g := newSlabFolder()
	f.groups[name] = g
	f.order = append(f.order, name)
	return g
}

func hasNotFoundMarker(segments []string) bool {
	for _, s := range segments {
		lower := strings.ToLower(s)
		for _, m := range notFoundMarkers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	return false
}

func hasStandSegment(segments []string) bool {
	for _, s := range segments {
		if strings.ToLower(s) == "stand" {
			return true
		}
	}
	return false
}

// BuildSlabs folds slab asset paths into one subcategory per stone type.
// Product images keep their logical paths; URLs are resolved lazily.
func BuildSlabs(paths []string) []domain.Subcategory {
	var categoryOrder []string
	folders := make(map[string]*slabFolder)
	names := make(map[string]string) // slug -> first folder name seen

	for _, p := range paths {
		parts := splitPath(p)
		i := indexOf(parts, slabAnchor)
		if i == -1 {
			continue
		}
		rel := make([]string, 0, len(parts)-i-1)
		for _, s := range parts[i+1:] {
			rel = append(rel, Decode(s))
		}
		if len(rel) < 3 || !IsImageFile(rel[len(rel)-1]) || hasNotFoundMarker(rel) {
			continue
		}

		category := rel[0]
		key := ToSlug(category)
		folder, ok := folders[key]
		if !ok {
			folder = newSlabFolder()
			folders[key] = folder
			names[key] = category
			categoryOrder = append(categoryOrder, key)
		}

		stand := hasStandSegment(rel)
		var images *slabImages
		if ToTitle(category) == stoneGranite {
			if len(rel) < 4 || strings.EqualFold(rel[2], "stand") {
				continue
			}
			images = folder.group(rel[1]).product(rel[2])
		} else {
			if strings.EqualFold(rel[1], "stand") {
				continue
			}
			images = folder.product(rel[1])
		}
		if stand {
			images.stand = append(images.stand, p)
		} else {
			images.others = append(images.others, p)
		}
	}

	coll := collate.New(language.English)
	result := make([]domain.Subcategory, 0, len(categoryOrder))
	for _, key := range categoryOrder {
		folder := folders[key]
		if len(folder.order) == 0 {
			continue
		}
		result = append(result, buildStoneCategory(names[key], folder, coll))
	}

	rank := func(id string) int {
		for i, o := range stoneOrder {
			if o == id {
				return i
			}
		}
		return len(stoneOrder)
	}
	sort.SliceStable(result, func(a, b int) bool {
		return rank(result[a].ID) < rank(result[b].ID)
	})
	return result
}

func buildStoneCategory(key string, folder *slabFolder, coll *collate.Collator) domain.Subcategory {
	title := ToTitle(key)
	cat := domain.Subcategory{ID: ToSlug(key), Name: title}

	switch title {
	case stoneGranite:
		for _, groupKey := range folder.order {
			group := folder.groups[groupKey]
			sub := domain.Subcategory{ID: ToSlug(groupKey), Name: SanitizeStoneName(groupKey)}
			for _, prodKey := range group.order {
				name := Disambiguate(SanitizeStoneName(prodKey), stoneGranite, groupKey)
				sub.Products = append(sub.Products, slabProduct(
					joinSlugs(cat.ID, sub.ID, prodKey), name, sub.ID,
					fmt.Sprintf("%s granite slab: durable, low-porosity and ideal for countertops, flooring and exterior cladding. Sourced from trusted quarries with strict QA.", name),
					group.products[prodKey],
				))
			}
			cat.Subcategories = append(cat.Subcategories, sub)
		}

	case stoneMarble, stoneOnyx, stoneSandstone, stoneTravertine:
		sub := domain.Subcategory{ID: cat.ID, Name: title}
		for _, prodKey := range folder.order {
			name := Disambiguate(SanitizeStoneName(prodKey), title, "")
			desc := fmt.Sprintf("%s %s: premium natural stone suitable for interiors, counters and wall features.", name, title)
			if title == stoneMarble {
				desc = fmt.Sprintf("%s marble slab: classic veining and premium finish for luxury interiors, countertops, vanities and wall cladding.", name)
			}
			sub.Products = append(sub.Products, slabProduct(
				joinSlugs(cat.ID, prodKey), name, sub.ID, desc, folder.products[prodKey],
			))
		}
		cat.Subcategories = append(cat.Subcategories, sub)

	default:
		for _, prodKey := range folder.order {
			sub := domain.Subcategory{ID: ToSlug(prodKey), Name: ToTitle(prodKey)}
			name := Disambiguate(SanitizeStoneName(prodKey), title, "")
			sub.Products = []domain.Product{slabProduct(
				joinSlugs(cat.ID, prodKey), name, sub.ID,
				fmt.Sprintf("%s %s slab: premium natural stone with refined aesthetics, suitable for luxury interiors and architectural applications.", name, title),
				folder.products[prodKey],
			)}
			cat.Subcategories = append(cat.Subcategories, sub)
		}
	}

	sortSubcategories(cat.Subcategories, coll)
	return cat
}

func slabProduct(id, name, subcategory, description string, images *slabImages) domain.Product {
	paths := images.paths()
	return domain.Product{
		ID:           id,
		Name:         name,
		Category:     domain.CategorySlabs,
		Subcategory:  subcategory,
		Description:  description,
		Image:        paths[0],
		Images:       paths,
		SortedImages: SortImagesByPriority(paths, domain.CategorySlabs),
	}
}

func sortSubcategories(subs []domain.Subcategory, coll *collate.Collator) {
	sort.SliceStable(subs, func(a, b int) bool {
		return coll.CompareString(subs[a].Name, subs[b].Name) < 0
	})
	for i := range subs {
		products := subs[i].Products
		sort.SliceStable(products, func(a, b int) bool {
			return coll.CompareString(products[a].Name, products[b].Name) < 0
		})
	}
}
