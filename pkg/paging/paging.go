// Package paging slices in-memory result sets into numbered pages.
package paging

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one page of a larger result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// Request is a 1-based page number and page size.
type Request struct {
	Page  int
	Limit int
}

// Normalize clamps the request to sensible bounds.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

// Slice returns the requested page of items.
func Slice[T any](items []T, req Request) Page[T] {
	req = req.Normalize()
	total := len(items)
	start := min((req.Page-1)*req.Limit, total)
	end := min(start+req.Limit, total)

	page := make([]T, end-start)
	copy(page, items[start:end])
	return Page[T]{
		Items:      page,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: (total + req.Limit - 1) / req.Limit,
	}
}
