// Package admin holds operator routes: cache inspection, manual invalidation and
// token issuing.
package admin

import (
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"fontier-admin/internal/config"
	"fontier-admin/internal/httpx/auth"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/httpx/mw"
	qc "fontier-admin/internal/querycache"
)

// InvalidateRequest names what to drop: a whole kind, or one key when param is set.
type InvalidateRequest struct {
	Kind  string `json:"kind" validate:"required"`
	Param string `json:"param"`
}

// TokenRequest asks for a token for another operator.
type TokenRequest struct {
	Subject string   `json:"sub" validate:"required"`
	Roles   []string `json:"roles"`
	TTL     string   `json:"ttl"`
}

const maxTokenTTL = 30 * 24 * time.Hour

// Mount registers the admin routes on r.
func Mount(r fiber.Router, cache *qc.Cache, store *config.Store) {
	r.Get("/admin/ping", PingHandler())
	r.Get("/admin/cache", CacheKeysHandler(cache))
	r.Post("/admin/cache/invalidate", InvalidateHandler(cache))
	r.Post("/admin/tokens", IssueTokenHandler(store))
}

// PingHandler answers pong with the caller's subject.
//
//	GET /api/v1/admin/ping
func PingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := fiber.Map{"message": "pong"}
		if ac := mw.Auth(c); ac != nil {
			body["sub"] = ac.Subject
		}
		return kit.OK(c, body)
	}
}

// CacheKeysHandler lists the cached query keys, sorted.
func CacheKeysHandler(cache *qc.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		keys := lo.Map(cache.Keys(), func(k qc.Key, _ int) string { return k.String() })
		slices.Sort(keys)
		return kit.OK(c, fiber.Map{"keys": keys, "ttl": cache.TTL().String()})
	}
}

// InvalidateHandler drops cached queries by hand. Subscribers and other replicas
// see the event like any mutation's.
//
//	POST /api/v1/admin/cache/invalidate {kind, param}
func InvalidateHandler(cache *qc.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req InvalidateRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		if strings.TrimSpace(req.Kind) == "" {
			return kit.BadRequest("kind required", nil)
		}
		dep := lo.Ternary(req.Param == "",
			qc.AllOf(req.Kind),
			qc.Exact(qc.Key{Kind: req.Kind, Param: req.Param}),
		)
		cache.Invalidate(c.UserContext(), "adminInvalidate", dep)
		return kit.OK(c, fiber.Map{"invalidated": dep.String()})
	}
}

// IssueTokenHandler signs a token with the configured secret.
//
//	POST /api/v1/admin/tokens {sub, roles, ttl}
func IssueTokenHandler(store *config.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg := store.Get()
		if !auth.Enabled(cfg) {
			return kit.NewAPIError(fiber.StatusConflict, "E_CONFLICT", "jwt secret not configured", nil)
		}
		var req TokenRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		if strings.TrimSpace(req.Subject) == "" {
			return kit.BadRequest("sub required", nil)
		}
		ttl := time.Hour
		if req.TTL != "" {
			d, err := time.ParseDuration(req.TTL)
			if err != nil || d <= 0 || d > maxTokenTTL {
				return kit.BadRequest("invalid ttl", req.TTL)
			}
			ttl = d
		}
		token, err := auth.Sign(cfg, strings.TrimSpace(req.Subject), req.Roles, ttl)
		if err != nil {
			return kit.InternalError("sign token failed", err.Error())
		}
		return kit.Created(c, fiber.Map{"token": token, "expires_in": int(ttl.Seconds())})
	}
}
