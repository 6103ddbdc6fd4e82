// Package dashboard serves the overview page. Every card and chart is a section with
// its own load state, so one failing query never blanks the page.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/httpx/kit"
	qc "fontier-admin/internal/querycache"
	"fontier-admin/internal/resources"
)

// Slice is one library of the distribution chart.
type Slice struct {
	LibraryID int    `json:"libraryId"`
	Name      string `json:"name,omitempty"`
	FontCount int    `json:"fontCount"`
}

// Overview is the dashboard payload.
type Overview struct {
	Fonts               kit.Section[int]                     `json:"fonts"`
	Libraries           kit.Section[int]                     `json:"libraries"`
	ActiveClients       kit.Section[int]                     `json:"activeClients"`
	Groups              kit.Section[int]                     `json:"groups"`
	ClientActivity      kit.Section[[]domain.ClientActivity] `json:"clientActivity"`
	LibraryDistribution kit.Section[[]Slice]                 `json:"libraryDistribution"`
}

// Mount registers GET /dashboard on r.
func Mount(r fiber.Router, svc *resources.Service) {
	r.Get("/dashboard", Handler(svc))
}

// mapSnapshot keeps the load state of s and replaces its data.
func mapSnapshot[T, R any](s qc.Snapshot[T], fn func(T) R) qc.Snapshot[R] {
	return qc.Snapshot[R]{
		Status:    s.Status,
		Data:      fn(s.Data),
		HasData:   s.HasData,
		Err:       s.Err,
		UpdatedAt: s.UpdatedAt,
		Stale:     s.Stale,
		Fetching:  s.Fetching,
	}
}

func count[T any](s qc.Snapshot[[]T], keep func(T) bool) kit.Section[int] {
	return kit.SectionOf(mapSnapshot(s, func(items []T) int { return lo.CountBy(items, keep) }))
}

func all[T any](T) bool { return true }

// Handler loads the six dashboard queries concurrently and always answers 200.
//
//	GET /api/v1/dashboard
func Handler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			fonts     qc.Snapshot[[]domain.Font]
			libraries qc.Snapshot[[]domain.Library]
			clients   qc.Snapshot[[]domain.Client]
			groups    qc.Snapshot[[]domain.Group]
			activity  qc.Snapshot[[]domain.ClientActivity]
			dist      qc.Snapshot[[]domain.LibraryDistribution]
		)
		ctx := c.UserContext()
		var g errgroup.Group
		g.Go(func() error { fonts = svc.Fonts(ctx); return nil })
		g.Go(func() error { libraries = svc.Libraries(ctx); return nil })
		g.Go(func() error { clients = svc.Clients(ctx); return nil })
		g.Go(func() error { groups = svc.Groups(ctx); return nil })
		g.Go(func() error { activity = svc.ClientActivity(ctx); return nil })
		g.Go(func() error { dist = svc.LibraryDistribution(ctx); return nil })
		_ = g.Wait()

		names := lo.SliceToMap(libraries.Data, func(l domain.Library) (int, string) { return l.ID, l.Name })
		return kit.OK(c, Overview{
			Fonts:          count(fonts, all[domain.Font]),
			Libraries:      count(libraries, all[domain.Library]),
			ActiveClients:  count(clients, func(cl domain.Client) bool { return cl.Active }),
			Groups:         count(groups, all[domain.Group]),
			ClientActivity: kit.SectionOf(activity),
			LibraryDistribution: kit.SectionOf(mapSnapshot(dist, func(d []domain.LibraryDistribution) []Slice {
				return lo.Map(d, func(x domain.LibraryDistribution, _ int) Slice {
					return Slice{LibraryID: x.LibraryID, Name: names[x.LibraryID], FontCount: x.FontCount}
				})
			})),
		})
	}
}
