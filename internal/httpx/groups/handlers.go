// Package groups serves the groups page, the create group modal and group membership.
package groups

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/resources"
)

// CreateGroupRequest is the request payload to create a group.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// AddClientRequest names the client to add by hwid.
type AddClientRequest struct {
	HWID string `json:"hwid" validate:"required"`
}

// AddItemRequest names a library or font to add by id.
type AddItemRequest struct {
	ID int `json:"id" validate:"gt=0"`
}

var sortFields = kit.SortWhitelist[domain.Group]{
	"id":   kit.ByID[domain.Group],
	"name": kit.ByName[domain.Group],
}

// Mount registers the group routes on r.
func Mount(r fiber.Router, svc *resources.Service, pageSize func() int) {
	r.Get("/groups", ListHandler(svc, pageSize))
	r.Post("/groups", CreateGroupHandler(svc))
	r.Get("/groups/:id", GetHandler(svc))
	r.Post("/groups/:id/clients", AddClientHandler(svc))
	r.Delete("/groups/:id/clients/:hwid", RemoveClientHandler(svc))
	r.Post("/groups/:id/libraries", AddItemHandler(svc.AddLibraryToGroup))
	r.Post("/groups/:id/fonts", AddItemHandler(svc.AddFontToGroup))
}

func groupID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, kit.BadRequest("invalid id", c.Params("id"))
	}
	return id, nil
}

// ListHandler lists groups, filtered on name and description.
func ListHandler(svc *resources.Service, pageSize func() int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return kit.ListSnapshot(c, svc.Groups(c.UserContext()), pageSize(), sortFields)
	}
}

// GetHandler returns one group.
func GetHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := groupID(c)
		if err != nil {
			return err
		}
		g, err := kit.Resolve(c, svc.Group(c.UserContext(), id))
		if err != nil {
			return err
		}
		return kit.OK(c, g)
	}
}

// CreateGroupHandler creates a group.
//
//	POST /api/v1/groups {name, description}
func CreateGroupHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateGroupRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return kit.BadRequest("name required", nil)
		}
		g, err := svc.CreateGroup(c.UserContext(), fontapi.GroupInput{Name: name, Description: strings.TrimSpace(req.Description)})
		if err != nil {
			return kit.FromError(err, "")
		}
		return kit.Created(c, g)
	}
}

// AddClientHandler adds a client to the group.
func AddClientHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := groupID(c)
		if err != nil {
			return err
		}
		var req AddClientRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		if strings.TrimSpace(req.HWID) == "" {
			return kit.BadRequest("hwid required", nil)
		}
		if err := svc.AddClientToGroup(c.UserContext(), id, strings.TrimSpace(req.HWID)); err != nil {
			return kit.FromError(err, "")
		}
		return kit.NoContent(c)
	}
}

// RemoveClientHandler removes a client from the group.
func RemoveClientHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := groupID(c)
		if err != nil {
			return err
		}
		if err := svc.RemoveClientFromGroup(c.UserContext(), id, c.Params("hwid")); err != nil {
			return kit.FromError(err, "")
		}
		return kit.NoContent(c)
	}
}

// AddItemHandler adds a library or font to the group through add.
func AddItemHandler(add func(ctx context.Context, groupID, itemID int) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := groupID(c)
		if err != nil {
			return err
		}
		var req AddItemRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		if err := add(c.UserContext(), id, req.ID); err != nil {
			return kit.FromError(err, "")
		}
		return kit.NoContent(c)
	}
}
