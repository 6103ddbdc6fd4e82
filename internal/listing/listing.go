// Package listing holds the pure list transformations used by every page: free-text
// filtering and page slicing. Both operate on the full list fetched from the API.
package listing

import (
	"strings"

	"github.com/samber/lo"

	"fontier-admin/internal/domain"
)

// Page is one slice of a list plus the numbers a pager needs.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total"`
}

// TotalPages is ceil(n/size), never less than 1.
func TotalPages(n, size int) int {
	size = lo.Max([]int{size, 1})
	return lo.Max([]int{1, (n + size - 1) / size})
}

// ClampPage moves page into [1, TotalPages(n, size)].
func ClampPage(page, n, size int) int {
	return lo.Clamp(page, 1, TotalPages(n, size))
}

// Paginate returns items[(page-1)*size : page*size] after clamping page.
// Out-of-range pages return the nearest valid page rather than an error.
func Paginate[T any](items []T, page, size int) []T {
	size = lo.Max([]int{size, 1})
	page = ClampPage(page, len(items), size)
	start := (page - 1) * size
	end := lo.Min([]int{start + size, len(items)})
	if start >= end {
		return []T{}
	}
	return items[start:end]
}

// PageOf is Paginate plus pager metadata.
func PageOf[T any](items []T, page, size int) Page[T] {
	size = lo.Max([]int{size, 1})
	page = ClampPage(page, len(items), size)
	return Page[T]{
		Items:      Paginate(items, page, size),
		Page:       page,
		PageSize:   size,
		TotalPages: TotalPages(len(items), size),
		TotalItems: len(items),
	}
}

// Matches is the filter predicate: case-insensitive substring of term in the
// item's name, or in its description when it has a non-empty one.
func Matches[T domain.Named](item T, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	if strings.Contains(strings.ToLower(item.Label()), needle) {
		return true
	}
	if d, ok := any(item).(domain.Described); ok {
		if desc := d.Details(); desc != "" && strings.Contains(strings.ToLower(desc), needle) {
			return true
		}
	}
	return false
}

// Filter keeps the items that match term. An empty term returns items unchanged.
func Filter[T domain.Named](items []T, term string) []T {
	if term == "" {
		return items
	}
	return lo.Filter(items, func(item T, _ int) bool { return Matches(item, term) })
}

// Preview returns at most n matches, used by the top bar search.
func Preview[T domain.Named](items []T, term string, n int) []T {
	matched := Filter(items, term)
	return matched[:lo.Min([]int{n, len(matched)})]
}
