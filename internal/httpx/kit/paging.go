package kit

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/listing"
	"fontier-admin/internal/querycache"
)

const maxPageSize = 100

// PagingParams contains the list parameters of a page request
type PagingParams struct {
	// Free-text filter term
	Query string
	// 1-based page number; out-of-range values are clamped when applied
	Page int
	// Items per page; 0 means the configured default
	PageSize int
	// Sort key string, field[:asc|desc]
	Sort string
}

// ParsePaging reads q, page, page_size and sort. Malformed numbers are rejected;
// well-formed but out-of-range pages are clamped later by Apply.
func ParsePaging(c *fiber.Ctx, defaultSize int) (PagingParams, error) {
	p := PagingParams{
		Query: strings.TrimSpace(c.Query("q")),
		Sort:  c.Query("sort", ""),
		Page:  1,
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, BadRequest("invalid page", raw)
		}
		p.Page = n
	}
	p.PageSize = defaultSize
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, BadRequest("invalid page_size", raw)
		}
		p.PageSize = n
	}
	p.PageSize = lo.Clamp(p.PageSize, 1, maxPageSize)
	return p, nil
}

// Page applies p to an already filtered and sorted list.
func Page[T any](items []T, p PagingParams) ([]T, PageMeta) {
	pg := listing.PageOf(items, p.Page, p.PageSize)
	return pg.Items, PageMeta{
		Page:       pg.Page,
		PageSize:   pg.PageSize,
		TotalPages: pg.TotalPages,
		Total:      pg.TotalItems,
		Query:      p.Query,
		Sort:       p.Sort,
	}
}

// ListSnapshot writes one page of a cached list: filtered by q, sorted by sort, then
// paged. Paging is validated before the snapshot is resolved.
func ListSnapshot[T domain.Named](c *fiber.Ctx, s querycache.Snapshot[[]T], defaultSize int, wl SortWhitelist[T]) error {
	p, err := ParsePaging(c, defaultSize)
	if err != nil {
		return err
	}
	items, err := Resolve(c, s)
	if err != nil {
		return err
	}
	items, err = ApplySort(listing.Filter(items, p.Query), p.Sort, wl)
	if err != nil {
		return err
	}
	page, meta := Page(items, p)
	meta.Stale = s.Stale
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt.UTC()
		meta.UpdatedAt = &t
	}
	return List(c, page, meta)
}
