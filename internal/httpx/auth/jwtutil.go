// Package auth issues and verifies the bearer tokens that guard the admin API.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fontier-admin/internal/config"
)

// RoleAdmin is required on every /api/v1 route when auth is enabled.
const RoleAdmin = "admin"

// Claims represents JWT claims used by this service.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Enabled reports whether a signing secret is configured.
func Enabled(cfg *config.Config) bool { return cfg.JWT.Secret != "" }

// Sign issues an HS256 token for sub valid for ttl.
func Sign(cfg *config.Config, sub string, roles []string, ttl time.Duration) (string, error) {
	if !Enabled(cfg) {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now().UTC()
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWT.Issuer,
			Subject:   sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
}

// ParseAndValidate verifies a token string and returns claims.
func ParseAndValidate(cfg *config.Config, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if cfg.JWT.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWT.Issuer))
	}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// Parser adapts ParseAndValidate to the middleware. cfg is read on every call so a
// rotated secret applies without restart.
func Parser(current func() *config.Config) func(string) (string, []string, error) {
	return func(token string) (string, []string, error) {
		claims, err := ParseAndValidate(current(), token)
		if err != nil {
			return "", nil, err
		}
		return claims.Subject, claims.Roles, nil
	}
}
