// Package users serves the clients page ("users" in the dashboard) and the manage
// client modal with its library, font and group editors.
package users

import (
	"cmp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/httpx/relation"
	"fontier-admin/internal/listing"
	"fontier-admin/internal/resources"
	"fontier-admin/pkg"
)

// ClientView is a client with its last-seen label already formatted.
type ClientView struct {
	domain.Client
	LastSeenLabel string `json:"lastSeenLabel"`
}

var sortFields = kit.SortWhitelist[domain.Client]{
	"id":     kit.ByID[domain.Client],
	"name":   kit.ByName[domain.Client],
	"hwid":   func(a, b domain.Client) int { return cmp.Compare(a.HWID, b.HWID) },
	"active": func(a, b domain.Client) int { return cmp.Compare(lo.Ternary(a.Active, 1, 0), lo.Ternary(b.Active, 1, 0)) },
	// RFC 3339 timestamps order lexically
	"last_seen": func(a, b domain.Client) int { return cmp.Compare(a.LastSeen, b.LastSeen) },
}

// Mount registers the client routes on r. now is the clock for last-seen labels.
func Mount(r fiber.Router, svc *resources.Service, pageSize func() int, now func() time.Time) {
	r.Get("/users", ListHandler(svc, pageSize, now))
	r.Get("/users/:hwid", GetHandler(svc, now))
	relation.Mount(r, "/users/:hwid/libraries", "hwid", svc.ClientLibraries)
	relation.Mount(r, "/users/:hwid/fonts", "hwid", svc.ClientFonts)
	relation.Mount(r, "/users/:hwid/groups", "hwid", svc.ClientGroups)
}

func view(now time.Time) func(domain.Client, int) ClientView {
	return func(c domain.Client, _ int) ClientView {
		return ClientView{Client: c, LastSeenLabel: pkg.LastSeen(c.LastSeen, now)}
	}
}

// ListHandler lists clients, filtered on name.
//
//	GET /api/v1/users?q=&page=&page_size=&sort=
func ListHandler(svc *resources.Service, pageSize func() int, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := kit.ParsePaging(c, pageSize())
		if err != nil {
			return err
		}
		clients, err := kit.Resolve(c, svc.Clients(c.UserContext()))
		if err != nil {
			return err
		}
		clients, err = kit.ApplySort(listing.Filter(clients, p.Query), p.Sort, sortFields)
		if err != nil {
			return err
		}
		page, meta := kit.Page(clients, p)
		return kit.List(c, lo.Map(page, view(now())), meta)
	}
}

// GetHandler returns one client by hwid.
func GetHandler(svc *resources.Service, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := kit.Resolve(c, svc.Client(c.UserContext(), c.Params("hwid")))
		if err != nil {
			return err
		}
		return kit.OK(c, view(now())(client, 0))
	}
}
