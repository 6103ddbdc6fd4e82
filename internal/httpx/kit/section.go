package kit

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/querycache"
)

// Section is one independently loaded part of a page. A failed section carries its
// error inline and keeps any data from an earlier success.
type Section[T any] struct {
	Status    querycache.Status `json:"status"`
	Data      T                 `json:"data"`
	Error     string            `json:"error,omitempty"`
	Stale     bool              `json:"stale,omitempty"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
}

// SectionOf converts a cache snapshot for rendering.
func SectionOf[T any](s querycache.Snapshot[T]) Section[T] {
	out := Section[T]{Status: s.Status, Data: s.Data, Stale: s.Stale}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt.UTC()
		out.UpdatedAt = &t
	}
	return out
}

// Resolve returns the snapshot's data for whole-page responses. Data from an earlier
// success is still served next to a fetch error, flagged by the X-Query-Error header.
// Without data the error itself is returned.
func Resolve[T any](c *fiber.Ctx, s querycache.Snapshot[T]) (T, error) {
	c.Set("X-Query-Status", s.Status.String())
	if s.HasData {
		if s.Err != nil {
			c.Set("X-Query-Error", s.Err.Error())
		}
		return s.Data, nil
	}
	if s.Err != nil {
		return s.Data, s.Err
	}
	var zero T
	return zero, fiber.NewError(fiber.StatusServiceUnavailable, "data not loaded yet")
}
