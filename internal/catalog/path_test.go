// File: storefront-service/internal/catalog/path_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
)

func categoryLookup() map[string]domain.Category {
	return MapByID([]domain.Category{
		{ID: "tools", Name: "Tools"},
		{ID: "drills", Name: "Drills", Parent: PtrTo("tools")},
		{ID: "cordless", Name: "Cordless", Parent: PtrTo("drills")},
	})
}

func TestResolvePath_DeepestRefWins(t *testing.T) {
	p := domain.Product{
		CategoryID:      PtrTo("tools"),
		SubCategoryID:   PtrTo("drills"),
		ThirdCategoryID: PtrTo("cordless"),
	}

	path := ResolvePath(p, categoryLookup())

	require.Len(t, path, 3)
	// Root to leaf.
	assert.Equal(t, "tools", path[0].ID)
	assert.Equal(t, "drills", path[1].ID)
	assert.Equal(t, "cordless", path[2].ID)
	assert.Equal(t, "Tools", path[0].Name)
	assert.Nil(t, path[0].Parent)
	require.NotNil(t, path[2].Parent)
	assert.Equal(t, "drills", *path[2].Parent)
}

func TestResolvePath_PartialRefs(t *testing.T) {
	p := domain.Product{SubCategoryID: PtrTo("drills")}

	path := ResolvePath(p, categoryLookup())

	require.Len(t, path, 2)
	assert.Equal(t, "tools", path[0].ID)
	assert.Equal(t, "drills", path[1].ID)
}

func TestResolvePath_UnknownStartYieldsEmpty(t *testing.T) {
	p := domain.Product{ThirdCategoryID: PtrTo("nonexistent")}
	assert.Empty(t, ResolvePath(p, categoryLookup()))
}

func TestResolvePath_NoRefsYieldsEmpty(t *testing.T) {
	assert.Empty(t, ResolvePath(domain.Product{}, categoryLookup()))
}

func TestResolvePath_CycleTerminates(t *testing.T) {
	byID := MapByID([]domain.Category{
		{ID: "a", Name: "A", Parent: PtrTo("b")},
		{ID: "b", Name: "B", Parent: PtrTo("a")},
	})
	p := domain.Product{CategoryID: PtrTo("a")}

	path := ResolvePath(p, byID)

	// Both nodes appear exactly once; the revisit stops the walk.
	require.Len(t, path, 2)
	assert.Equal(t, "b", path[0].ID)
	assert.Equal(t, "a", path[1].ID)
}

func TestFallbackPath(t *testing.T) {
	p := domain.Product{
		Category:    "Toys",
		SubCategory: PtrTo("Outdoor"),
	}

	path := FallbackPath(p)

	require.Len(t, path, 2)
	assert.Equal(t, "Toys", path[0].Name)
	assert.Equal(t, "", path[0].ID)
	assert.Nil(t, path[0].Parent, "fallback entries carry no graph shape")
	assert.Equal(t, "Outdoor", path[1].Name)
}

func TestFallbackPath_SkipsBlanks(t *testing.T) {
	p := domain.Product{
		Category:      "Toys",
		ThirdCategory: PtrTo("Kites"),
	}

	path := FallbackPath(p)

	require.Len(t, path, 2)
	assert.Equal(t, "Toys", path[0].Name)
	assert.Equal(t, "Kites", path[1].Name)
}

func TestProductPath_DegradesToFallback(t *testing.T) {
	p := domain.Product{
		Category:   "Toys",
		CategoryID: PtrTo("gone"),
	}

	path := ProductPath(p, categoryLookup())

	require.Len(t, path, 1)
	assert.Equal(t, "Toys", path[0].Name)
	assert.Equal(t, "gone", path[0].ID)
}

func TestProductCategoryIDs_ResolvedPath(t *testing.T) {
	p := domain.Product{SubCategoryID: PtrTo("drills")}

	ids := ProductCategoryIDs(p, categoryLookup())

	assert.Equal(t, []string{"tools", "drills"}, ids)
}

func TestProductCategoryIDs_RawRefsDeduplicated(t *testing.T) {
	p := domain.Product{
		CategoryID:      PtrTo("x"),
		SubCategoryID:   PtrTo("y"),
		ThirdCategoryID: PtrTo("x"),
	}

	ids := ProductCategoryIDs(p, map[string]domain.Category{})

	assert.Equal(t, []string{"x", "y"}, ids)
}
