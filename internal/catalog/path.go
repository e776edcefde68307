package catalog

import (
	"storefront-service/internal/domain"
)

// ResolvePath walks parent links from a product's most specific category
// reference and returns the root-to-leaf ancestor path. The walk keeps a
// visited set so a corrupt parent cycle stops instead of looping; the graph
// is assumed acyclic but not trusted blindly. An unknown starting id yields
// an empty path so the caller can fall back to denormalized names.
func ResolvePath(p domain.Product, byID map[string]domain.Category) []domain.PathEntry {
	currentID := deepestRef(p)
	if currentID == "" {
		return nil
	}

	var path []domain.PathEntry
	visited := make(map[string]bool)

	for currentID != "" && !visited[currentID] {
		node, ok := byID[currentID]
		if !ok {
			break
		}
		path = append(path, domain.PathEntry{
			ID:     currentID,
			Name:   node.Name,
			Parent: node.Parent,
		})
		visited[currentID] = true
		if node.Parent == nil {
			break
		}
		currentID = *node.Parent
	}

	// Collected leaf-to-root; callers want root-to-leaf.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FallbackPath builds a synthetic flat path from the product's denormalized
// category name fields, in top/sub/third order, skipping blanks. Every
// synthesized entry has a nil parent: the fallback carries no graph shape.
func FallbackPath(p domain.Product) []domain.PathEntry {
	var path []domain.PathEntry
	add := func(id *string, name string) {
		if name == "" {
			return
		}
		entry := domain.PathEntry{Name: name}
		if id != nil {
			entry.ID = *id
		}
		path = append(path, entry)
	}
	add(p.CategoryID, p.Category)
	if p.SubCategory != nil {
		add(p.SubCategoryID, *p.SubCategory)
	}
	if p.ThirdCategory != nil {
		add(p.ThirdCategoryID, *p.ThirdCategory)
	}
	return path
}

// ProductPath resolves the product's category path against the graph,
// degrading to the denormalized-name fallback when resolution yields
// nothing.
func ProductPath(p domain.Product, byID map[string]domain.Category) []domain.PathEntry {
	if path := ResolvePath(p, byID); len(path) > 0 {
		return path
	}
	return FallbackPath(p)
}

// ProductCategoryIDs returns the ordered ids of the resolved path when the
// graph resolves, else the product's raw references deduplicated in
// first-seen order.
func ProductCategoryIDs(p domain.Product, byID map[string]domain.Category) []string {
	if path := ResolvePath(p, byID); len(path) > 0 {
		ids := make([]string, 0, len(path))
		for _, entry := range path {
			if entry.ID != "" {
				ids = append(ids, entry.ID)
			}
		}
		return ids
	}

	var ids []string
	seen := make(map[string]bool, 3)
	push := func(ref *string) {
		if ref == nil || *ref == "" || seen[*ref] {
			return
		}
		seen[*ref] = true
		ids = append(ids, *ref)
	}
	push(p.CategoryID)
	push(p.SubCategoryID)
	push(p.ThirdCategoryID)
	return ids
}

// deepestRef picks the most specific non-empty category reference:
// third level first, then sub, then top.
func deepestRef(p domain.Product) string {
	for _, ref := range []*string{p.ThirdCategoryID, p.SubCategoryID, p.CategoryID} {
		if ref != nil && *ref != "" {
			return *ref
		}
	}
	return ""
}
