package httpx

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"fontier-admin/internal/config"
	"fontier-admin/internal/httpx/admin"
	"fontier-admin/internal/httpx/auth"
	"fontier-admin/internal/httpx/configs"
	"fontier-admin/internal/httpx/dashboard"
	"fontier-admin/internal/httpx/events"
	"fontier-admin/internal/httpx/fonts"
	"fontier-admin/internal/httpx/groups"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/httpx/libraries"
	"fontier-admin/internal/httpx/mw"
	"fontier-admin/internal/httpx/search"
	"fontier-admin/internal/httpx/users"
	"fontier-admin/internal/resources"
)

// Deps is what the routes need. Redis may be nil.
type Deps struct {
	Service *resources.Service
	Config  *config.Store
	Redis   *redis.Client
	// Now is the clock for last-seen labels; nil means time.Now.
	Now func() time.Time
	// SSE heartbeat; zero means events.DefaultHeartbeat.
	Heartbeat time.Duration
}

// NewApp builds the fiber application with the unified error envelope, the common
// middleware and every route.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "fontier-admin",
		ErrorHandler: kit.ErrorHandler(),
		BodyLimit:    32 << 20,
	})
	RegisterCommonMiddlewares(app)
	Register(app, d)
	return app
}

// Register mounts /health and the /api/v1 surface. When a JWT secret is configured
// every /api/v1 route requires a bearer token with the admin role.
func Register(app *fiber.App, d Deps) {
	var rdb redis.UniversalClient
	if d.Redis != nil {
		rdb = d.Redis
	}
	app.Get("/health", HealthHandler(d.Service.Cache(), rdb))

	cfg := d.Config.Get()
	api := app.Group("/api/v1")
	if auth.Enabled(cfg) {
		api.Use(mw.JWTMiddleware(auth.Parser(d.Config.Get)))
	}
	if cfg.RateLimit.Max > 0 {
		var scripter redis.Scripter
		if d.Redis != nil {
			scripter = d.Redis
		}
		api.Use(mw.RateLimit(scripter, cfg.RateLimit.Window, cfg.RateLimit.Max))
	}
	if auth.Enabled(cfg) {
		api.Use(mw.RequireRoles(auth.RoleAdmin))
	}

	now := d.Now
	if now == nil {
		now = time.Now
	}
	pageSize := func() int { return d.Config.Get().Paging.Size }

	dashboard.Mount(api, d.Service)
	search.Mount(api, d.Service)
	fonts.Mount(api, d.Service, pageSize)
	libraries.Mount(api, d.Service, pageSize)
	users.Mount(api, d.Service, pageSize, now)
	groups.Mount(api, d.Service, pageSize)
	events.Mount(api, d.Service.Cache(), d.Heartbeat)
	admin.Mount(api, d.Service.Cache(), d.Config)
	configs.Mount(api, d.Config)
}
