// Package libraries serves the libraries page, the create/edit library modal and the
// library font editor.
package libraries

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/httpx/relation"
	"fontier-admin/internal/resources"
)

// LibraryRequest is the create/update payload.
type LibraryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (r LibraryRequest) input() (fontapi.LibraryInput, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fontapi.LibraryInput{}, kit.BadRequest("name required", nil)
	}
	return fontapi.LibraryInput{Name: name, Description: strings.TrimSpace(r.Description)}, nil
}

var sortFields = kit.SortWhitelist[domain.Library]{
	"id":   kit.ByID[domain.Library],
	"name": kit.ByName[domain.Library],
}

// Mount registers the library routes on r.
func Mount(r fiber.Router, svc *resources.Service, pageSize func() int) {
	r.Get("/libraries", ListHandler(svc, pageSize))
	r.Post("/libraries", CreateHandler(svc))
	r.Get("/libraries/:id", GetHandler(svc))
	r.Put("/libraries/:id", UpdateHandler(svc))
	relation.Mount(r, "/libraries/:id/fonts", "id", svc.LibraryFonts)
}

// ListHandler lists libraries, filtered on name and description.
func ListHandler(svc *resources.Service, pageSize func() int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return kit.ListSnapshot(c, svc.Libraries(c.UserContext()), pageSize(), sortFields)
	}
}

func libraryID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, kit.BadRequest("invalid id", c.Params("id"))
	}
	return id, nil
}

// GetHandler returns one library.
func GetHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := libraryID(c)
		if err != nil {
			return err
		}
		l, err := kit.Resolve(c, svc.Library(c.UserContext(), id))
		if err != nil {
			return err
		}
		return kit.OK(c, l)
	}
}

// CreateHandler creates a library.
//
//	POST /api/v1/libraries {name, description}
func CreateHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LibraryRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		in, err := req.input()
		if err != nil {
			return err
		}
		l, err := svc.CreateLibrary(c.UserContext(), in)
		if err != nil {
			return kit.FromError(err, "")
		}
		return kit.Created(c, l)
	}
}

// UpdateHandler replaces a library's name and description.
func UpdateHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := libraryID(c)
		if err != nil {
			return err
		}
		var req LibraryRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		in, err := req.input()
		if err != nil {
			return err
		}
		l, err := svc.UpdateLibrary(c.UserContext(), id, in)
		if err != nil {
			return kit.FromError(err, "")
		}
		return kit.OK(c, l)
	}
}
