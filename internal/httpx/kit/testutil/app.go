// Package testutil builds fiber apps and a faked upstream for handler tests.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"fontier-admin/internal/httpx/kit"
)

// NewApp returns an app configured like production (error envelope, request ids,
// upload-sized body limit) with only the routes registered by mounts.
func NewApp(mounts ...func(*fiber.App)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler(), BodyLimit: 32 << 20})
	app.Use(requestid.New())
	for _, m := range mounts {
		m(app)
	}
	return app
}
