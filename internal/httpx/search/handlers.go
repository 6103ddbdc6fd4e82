// Package search serves the top bar search across fonts, libraries and clients.
package search

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/listing"
	qc "fontier-admin/internal/querycache"
	"fontier-admin/internal/resources"
)

// PreviewSize is how many matches of each kind the dropdown shows.
const PreviewSize = 3

// Results is one search answer. Each kind loads and fails on its own.
type Results struct {
	Query     string                        `json:"q"`
	Fonts     kit.Section[[]domain.Font]    `json:"fonts"`
	Libraries kit.Section[[]domain.Library] `json:"libraries"`
	Clients   kit.Section[[]domain.Client]  `json:"clients"`
}

// Mount registers GET /search on r.
func Mount(r fiber.Router, svc *resources.Service) {
	r.Get("/search", Handler(svc))
}

func preview[T domain.Named](s qc.Snapshot[[]T], term string) kit.Section[[]T] {
	sec := kit.SectionOf(s)
	sec.Data = listing.Preview(s.Data, term, PreviewSize)
	return sec
}

// Handler answers ?q= with the first matches per kind. A blank term matches nothing.
//
//	GET /api/v1/search?q=
func Handler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		term := strings.TrimSpace(c.Query("q"))
		if term == "" {
			return kit.OK(c, Results{
				Fonts:     kit.Section[[]domain.Font]{Status: qc.StatusIdle, Data: []domain.Font{}},
				Libraries: kit.Section[[]domain.Library]{Status: qc.StatusIdle, Data: []domain.Library{}},
				Clients:   kit.Section[[]domain.Client]{Status: qc.StatusIdle, Data: []domain.Client{}},
			})
		}
		ctx := c.UserContext()
		return kit.OK(c, Results{
			Query:     term,
			Fonts:     preview(svc.Fonts(ctx), term),
			Libraries: preview(svc.Libraries(ctx), term),
			Clients:   preview(svc.Clients(ctx), term),
		})
	}
}
