// Package fonts serves the fonts page and the upload modal.
package fonts

import (
	"cmp"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/logx"
	"fontier-admin/internal/resources"
)

var fontsLogger = logx.GetScope("httpx.fonts")

var sortFields = kit.SortWhitelist[domain.Font]{
	"id":         kit.ByID[domain.Font],
	"name":       kit.ByName[domain.Font],
	"style":      func(a, b domain.Font) int { return cmp.Compare(a.Style, b.Style) },
	"created_at": func(a, b domain.Font) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) },
}

// Mount registers the font routes on r.
func Mount(r fiber.Router, svc *resources.Service, pageSize func() int) {
	r.Get("/fonts", ListHandler(svc, pageSize))
	r.Get("/fonts/:id", GetHandler(svc))
	r.Post("/fonts", UploadHandler(svc))
}

// ListHandler lists fonts, filtered by ?q= and paged.
//
//	GET /api/v1/fonts?q=&page=&page_size=&sort=
func ListHandler(svc *resources.Service, pageSize func() int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return kit.ListSnapshot(c, svc.Fonts(c.UserContext()), pageSize(), sortFields)
	}
}

// GetHandler returns one font.
func GetHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return kit.BadRequest("invalid id", c.Params("id"))
		}
		f, err := kit.Resolve(c, svc.Font(c.UserContext(), id))
		if err != nil {
			return err
		}
		return kit.OK(c, f)
	}
}

// UploadHandler forwards the multipart "file" field to the API. Size, format and
// duplicate rejections come back with the message shown in the modal.
//
//	POST /api/v1/fonts
func UploadHandler(svc *resources.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return kit.BadRequest("file required", nil)
		}
		f, err := fh.Open()
		if err != nil {
			return kit.InternalError("read upload failed", err.Error())
		}
		defer f.Close()

		res, err := svc.UploadFont(c.UserContext(), fh.Filename, f)
		if err != nil {
			fontsLogger.Info("upload rejected", zap.String("filename", fh.Filename), zap.Error(err))
			return kit.FromError(err, fontapi.UploadErrorMessage(err))
		}
		return kit.Created(c, res)
	}
}
