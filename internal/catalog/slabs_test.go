package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stone-catalog-service/internal/domain"
)

func TestBuildSlabs_MarbleWithStandImage(t *testing.T) {
	subs := BuildSlabs([]string{
		"Collection/Marble/Carrara White/stand/s1.webp",
		"Collection/Marble/Carrara White/c2.webp",
	})

	require.Len(t, subs, 1)
	marble := subs[0]
	assert.Equal(t, "marble", marble.ID)
	assert.Equal(t, "Marble", marble.Name)
	require.Len(t, marble.Subcategories, 1)
	assert.Equal(t, "Marble", marble.Subcategories[0].Name)
	require.Len(t, marble.Subcategories[0].Products, 1)

	p := marble.Subcategories[0].Products[0]
	assert.Equal(t, "Carrara White", p.Name)
	assert.Equal(t, "marble-carrara-white", p.ID)
	assert.Equal(t, domain.CategorySlabs, p.Category)
	assert.Equal(t, "marble", p.Subcategory)
	require.Len(t, p.Images, 2)
	assert.True(t, strings.HasSuffix(p.Images[0], "s1.webp"))
	assert.Equal(t, p.Images, p.SortedImages)
	assert.Equal(t, p.Images[0], p.Image)
	assert.False(t, p.Available)
	assert.Nil(t, p.PriceINR)
}

func TestBuildSlabs_StandImagesLeadEvenWhenDiscoveredLast(t *testing.T) {
	subs := BuildSlabs([]string{
		"Collection/Onyx/Honey/a.jpg",
		"Collection/Onyx/Honey/b.jpg",
		"Collection/Onyx/Honey/Stand/c.jpg",
	})
	require.Len(t, subs, 1)
	p := subs[0].Subcategories[0].Products[0]
	assert.Equal(t, "Collection/Onyx/Honey/Stand/c.jpg", p.Images[0])
}

func TestBuildSlabs_GraniteGroupsAndDisambiguation(t *testing.T) {
	subs := BuildSlabs([]string{
		"/src/assets/Collection/Granite/Alaska/White/1.webp",
		"/src/assets/Collection/Granite/Alaska/Alaska Pink/1.webp",
		"/src/assets/Collection/Granite/Black Galaxy Granite/Classic/1.webp",
		"/src/assets/Collection/Granite/Alaska/1.webp", // missing product level
	})

	require.Len(t, subs, 1)
	granite := subs[0]
	assert.Equal(t, "granite", granite.ID)
	require.Len(t, granite.Subcategories, 2)

	alaska := granite.Subcategories[0]
	assert.Equal(t, "alaska", alaska.ID)
	require.Len(t, alaska.Products, 2)
	assert.Equal(t, "Alaska Pink", alaska.Products[0].Name)
	assert.Equal(t, "Alaska White", alaska.Products[1].Name)
	assert.Equal(t, "granite-alaska-white", alaska.Products[1].ID)
	assert.Equal(t, "alaska", alaska.Products[1].Subcategory)
	assert.Contains(t, alaska.Products[1].Description, "Alaska White granite slab")

	galaxy := granite.Subcategories[1]
	assert.Equal(t, "black-galaxy-granite", galaxy.ID)
	assert.Equal(t, "Black Galaxy", galaxy.Name)
}

func TestBuildSlabs_SkipsNotFoundAndMalformed(t *testing.T) {
	subs := BuildSlabs([]string{
		"Collection/Marble/Not Found/1.jpg",
		"Collection/Marble/Statuario/NotFound/1.jpg",
		"Collection/Marble/Statuario/not fount/2.jpg",
		"Collection/Marble/readme.txt",
		"Collection/Marble.jpg",
		"Other/Marble/Statuario/1.jpg",
	})
	assert.Empty(t, subs)
}

func TestBuildSlabs_CategoryOrder(t *testing.T) {
	subs := BuildSlabs([]string{
		"Collection/Quartzite/Taj Mahal/1.jpg",
		"Collection/Travertine/Silver/1.jpg",
		"Collection/Limestone/Jura/1.jpg",
		"Collection/Marble/Statuario/1.jpg",
		"Collection/Granite/Alaska/Alaska Pink/1.jpg",
	})

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"granite", "marble", "travertine", "quartzite", "limestone"}, ids)

	travertine := subs[2].Subcategories[0].Products[0]
	assert.Equal(t, "Travertine Silver", travertine.Name, "generic names take the category")

	quartzite := subs[3]
	require.Len(t, quartzite.Subcategories, 1)
	assert.Equal(t, "taj-mahal", quartzite.Subcategories[0].ID)
	assert.Equal(t, "quartzite-taj-mahal", quartzite.Subcategories[0].Products[0].ID)
}

func TestBuildSlabs_ProductsSortedByName(t *testing.T) {
	subs := BuildSlabs([]string{
		"Collection/Marble/Statuario/1.jpg",
		"Collection/Marble/armani grey/1.jpg",
		"Collection/Marble/Botticino/1.jpg",
	})
	products := subs[0].Subcategories[0].Products
	names := []string{products[0].Name, products[1].Name, products[2].Name}
	assert.Equal(t, []string{"Armani Grey", "Botticino", "Statuario"}, names)
}

func TestBuildSlabs_StoneFolderCaseVariantsMerge(t *testing.T) {
	subs := BuildSlabs([]string{
		"Collection/Marble/Statuario/1.webp",
		"Collection/marble/Carrara White/c2.webp",
		"Collection/MARBLE/Statuario/2.webp",
	})

	require.Len(t, subs, 1)
	assert.Equal(t, "marble", subs[0].ID)
	assert.Equal(t, "Marble", subs[0].Name)

	products := subs[0].Subcategories[0].Products
	require.Len(t, products, 2)
	ids := map[string]bool{}
	for _, p := range products {
		assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
		ids[p.ID] = true
	}
	assert.Equal(t, "Carrara White", products[0].Name)
	assert.Equal(t, "Statuario", products[1].Name)
	assert.Len(t, products[1].Images, 2)
}
