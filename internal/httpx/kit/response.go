package kit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// PageMeta describes one page of a filtered list. Stale and UpdatedAt come from the
// cached query the page was cut from.
type PageMeta struct {
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
	Query      string     `json:"q,omitempty"`
	Sort       string     `json:"sort,omitempty"`
	Stale      bool       `json:"stale,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// RequestID is the id set by the requestid middleware, or the caller's header.
func RequestID(c *fiber.Ctx) string {
	rid := c.GetRespHeader(fiber.HeaderXRequestID)
	return lo.Ternary(rid != "", rid, c.Get(fiber.HeaderXRequestID))
}

func envelope(c *fiber.Ctx, status int, data, meta any) error {
	body := fiber.Map{
		"code":       "OK",
		"message":    "success",
		"data":       data,
		"request_id": RequestID(c),
	}
	if meta != nil {
		body["meta"] = meta
	}
	return c.Status(status).JSON(body)
}

func OK(c *fiber.Ctx, data any) error { return envelope(c, fiber.StatusOK, data, nil) }

func Created(c *fiber.Ctx, data any) error { return envelope(c, fiber.StatusCreated, data, nil) }

// List sends one page with its meta.
func List(c *fiber.Ctx, items any, meta PageMeta) error {
	return envelope(c, fiber.StatusOK, items, meta)
}

// NoContent acknowledges a mutation that has nothing to return.
func NoContent(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
