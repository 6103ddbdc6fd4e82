package admin

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/config"
	"fontier-admin/internal/fontapi/fontapitest"
	"fontier-admin/internal/httpx/auth"
	"fontier-admin/internal/httpx/kit/testutil"
	"fontier-admin/internal/resources"
)

func newApp(t *testing.T, secret string) (*fiber.App, *resources.Service, *fontapitest.Server, *config.Config) {
	t.Helper()
	svc, upstream := testutil.NewService(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	app := testutil.NewApp(func(app *fiber.App) {
		Mount(app.Group("/api/v1"), svc.Cache(), config.NewStore(cfg))
	})
	return app, svc, upstream, cfg
}

func post(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAdmin_Ping(t *testing.T) {
	app, _, _, _ := newApp(t, "")
	res, env := testutil.Do[map[string]string](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil))
	if res.StatusCode != http.StatusOK || env.Data["message"] != "pong" {
		t.Fatalf("ping: %d %+v", res.StatusCode, env.Data)
	}
}

func TestAdmin_CacheKeysAndInvalidate(t *testing.T) {
	app, svc, upstream, _ := newApp(t, "")
	ctx := t.Context()
	svc.Fonts(ctx)
	svc.Font(ctx, 1)

	_, env := testutil.Do[struct {
		Keys []string `json:"keys"`
	}](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/admin/cache", nil))
	if !slices.Equal(env.Data.Keys, []string{"font(1)", "fonts"}) {
		t.Fatalf("keys: %v", env.Data.Keys)
	}

	res, inv := testutil.Do[map[string]string](t, app, post("/api/v1/admin/cache/invalidate", `{"kind":"fonts"}`))
	if res.StatusCode != http.StatusOK || inv.Data["invalidated"] != "fonts(*)" {
		t.Fatalf("invalidate: %d %+v", res.StatusCode, inv.Data)
	}
	before := upstream.Hits("GET /api/fonts")
	svc.Fonts(ctx)
	if got := upstream.Hits("GET /api/fonts"); got != before+1 {
		t.Fatalf("fonts not refetched: %d -> %d", before, got)
	}

	_, inv = testutil.Do[map[string]string](t, app, post("/api/v1/admin/cache/invalidate", `{"kind":"font","param":"1"}`))
	if inv.Data["invalidated"] != "font(1)" {
		t.Fatalf("exact invalidate: %+v", inv.Data)
	}

	if res, _ := testutil.Do[any](t, app, post("/api/v1/admin/cache/invalidate", `{"kind":" "}`)); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank kind: %d", res.StatusCode)
	}
}

func TestAdmin_IssueToken(t *testing.T) {
	app, _, _, cfg := newApp(t, "test-secret")

	res, env := testutil.Do[struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}](t, app, post("/api/v1/admin/tokens", `{"sub":"ops","roles":["admin"],"ttl":"10m"}`))
	if res.StatusCode != http.StatusCreated || env.Data.ExpiresIn != 600 {
		t.Fatalf("issue: %d %+v", res.StatusCode, env.Data)
	}
	claims, err := auth.ParseAndValidate(cfg, env.Data.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "ops" || !slices.Contains(claims.Roles, auth.RoleAdmin) {
		t.Fatalf("claims: %+v", claims)
	}
	if time.Until(claims.ExpiresAt.Time) > 10*time.Minute {
		t.Fatalf("ttl not applied: %v", claims.ExpiresAt)
	}

	if res, _ := testutil.Do[any](t, app, post("/api/v1/admin/tokens", `{"sub":"ops","ttl":"forever"}`)); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad ttl: %d", res.StatusCode)
	}
	if res, _ := testutil.Do[any](t, app, post("/api/v1/admin/tokens", `{}`)); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing sub: %d", res.StatusCode)
	}
}

func TestAdmin_IssueTokenWithoutSecret(t *testing.T) {
	app, _, _, _ := newApp(t, "")
	if res, _ := testutil.Do[any](t, app, post("/api/v1/admin/tokens", `{"sub":"ops"}`)); res.StatusCode != http.StatusConflict {
		t.Fatalf("no secret: %d", res.StatusCode)
	}
}
