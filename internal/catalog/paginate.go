package catalog

// PageResult is one fixed-size slice of a filtered listing plus its
// metadata. StartIndex/EndIndex are zero-based half-open bounds into the
// original list.
type PageResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// Paginate slices list into fixed-size pages. TotalPages is at least 1 even
// for an empty list: the UI convention is that an absence of pages is not
// itself an error. Pages are 1-based. Non-positive page or pageSize inputs
// floor to 1; within the valid range nothing is clamped, so a page past
// TotalPages yields an empty Items slice rather than the last page.
func Paginate[T any](list []T, pageSize, page int) PageResult[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	total := len(list)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return PageResult[T]{
		Items:      list[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		StartIndex: start,
		EndIndex:   end,
	}
}
