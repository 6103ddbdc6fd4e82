// Package mw contains HTTP middleware including authentication and rate limiting.
package mw

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// AuthContext holds authentication details extracted from JWT.
type AuthContext struct {
	Subject string
	Roles   []string
}

// TokenParser parses a token string and returns subject and roles.
type TokenParser func(token string) (string, []string, error)

// Auth returns the AuthContext attached by JWTMiddleware, or nil.
func Auth(c *fiber.Ctx) *AuthContext {
	ac, _ := c.Locals("auth").(*AuthContext)
	return ac
}

// JWTMiddleware attaches auth context parsed by the given token parser.
// Requests without a valid bearer token pass through unauthenticated.
func JWTMiddleware(parse TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return c.Next()
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		sub, roles, err := parse(token)
		if err == nil && sub != "" {
			c.Locals("auth", &AuthContext{Subject: sub, Roles: roles})
		}
		return c.Next()
	}
}

// RequireRoles enforces that the authenticated context has at least one of the roles.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac := Auth(c)
		if ac == nil || ac.Subject == "" {
			return fiber.ErrUnauthorized
		}
		if len(roles) == 0 || lo.Some(ac.Roles, roles) {
			return c.Next()
		}
		return fiber.ErrForbidden
	}
}
