package domain

// PaginationParams carries page/limit values from the HTTP and CLI layers to the services.
// Page is 1-indexed. Limit is capped at 100 by NewPaginationParams.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of items to return.
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional HTTP query params.
// Nil pointers fall back to sane defaults (page=1, limit=20).
// The limit is capped at 100 to prevent runaway queries.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = *limit
		if p.Limit > 100 {
			p.Limit = 100
		}
	}
	return p
}

// Offset returns the zero-based offset of the first item on the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Window returns the slice bounds [start, end) of the requested page within
// a collection of total items. Out-of-range pages yield an empty window.
func (p PaginationParams) Window(total int) (start, end int) {
	if total <= 0 || p.Limit <= 0 || p.Page < 1 {
		return 0, 0
	}
	// Compare page counts before multiplying so a huge page cannot overflow.
	if p.Page-1 >= (total+p.Limit-1)/p.Limit {
		return total, total
	}
	start = p.Offset()
	end = min(start+p.Limit, total)
	return start, end
}
