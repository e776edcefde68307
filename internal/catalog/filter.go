package catalog

import (
	"sort"
	"strings"

	"storefront-service/internal/domain"
)

// SortOrder selects product ordering in filtered listings.
type SortOrder string

const (
	SortRelevant SortOrder = "relevant" // preserve upstream order
	SortLowHigh  SortOrder = "low-high" // ascending price
	SortHighLow  SortOrder = "high-low" // descending price
)

// ParseSortOrder maps a query value onto a SortOrder, defaulting to
// relevance for anything unrecognized.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortLowHigh:
		return SortLowHigh
	case SortHighLow:
		return SortHighLow
	default:
		return SortRelevant
	}
}

// FilterOptions are the storefront listing controls.
type FilterOptions struct {
	Search      string
	CategoryIDs []string
	Sort        SortOrder
}

// Filter applies the search predicate, then the category predicate, then
// the sort order, returning a new slice. The input is never mutated.
//
// Search is a case-insensitive substring match of the trimmed text against
// the product name; blank text matches everything. With categories selected,
// a product passes only if its resolved category-id path intersects the
// selection; a product whose path resolves to nothing always fails an
// active category filter. Price sorts are stable, so equal-price ties keep
// their upstream relative order.
func Filter(products []domain.Product, byID map[string]domain.Category, opts FilterOptions) []domain.Product {
	out := make([]domain.Product, 0, len(products))

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	selected := make(map[string]bool, len(opts.CategoryIDs))
	for _, id := range opts.CategoryIDs {
		if id != "" {
			selected[id] = true
		}
	}

	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if len(selected) > 0 && !intersects(ProductCategoryIDs(p, byID), selected) {
			continue
		}
		out = append(out, p)
	}

	switch opts.Sort {
	case SortLowHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortHighLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

func intersects(ids []string, selected map[string]bool) bool {
	for _, id := range ids {
		if selected[id] {
			return true
		}
	}
	return false
}
