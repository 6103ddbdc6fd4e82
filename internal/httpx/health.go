package httpx

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/querycache"
)

// HealthHandler reports liveness, the number of cached queries and, when Redis is
// configured, whether it answers a ping. A Redis outage reports "degraded" with 200.
//
//	GET /health
func HealthHandler(cache *querycache.Cache, rdb redis.UniversalClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if cache != nil {
			body["cached_queries"] = len(cache.Keys())
		}
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				body["status"], body["redis"] = "degraded", err.Error()
			} else {
				body["redis"] = "ok"
			}
		}
		return kit.OK(c, body)
	}
}
