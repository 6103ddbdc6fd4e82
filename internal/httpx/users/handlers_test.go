package users

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi/fontapitest"
	"fontier-admin/internal/httpx/kit/testutil"
	"fontier-admin/internal/httpx/relation"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }

func newApp(t *testing.T) (*fiber.App, *fontapitest.Server) {
	t.Helper()
	svc, upstream := testutil.NewService(t)
	app := testutil.NewApp(func(app *fiber.App) {
		Mount(app.Group("/api/v1"), svc, func() int { return 6 }, fixedNow)
	})
	return app, upstream
}

func TestUsers_ListWithLastSeen(t *testing.T) {
	app, _ := newApp(t)
	res, env := testutil.Do[[]ClientView](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users?sort=name", nil))
	if res.StatusCode != http.StatusOK || len(env.Data) != 2 {
		t.Fatalf("list: %d %+v", res.StatusCode, env.Data)
	}
	if env.Data[0].Name != "Print PC" || env.Data[0].LastSeenLabel != "never" {
		t.Fatalf("first row %+v", env.Data[0])
	}
	if env.Data[1].HWID != "hw-1" || env.Data[1].LastSeenLabel != "2h ago" {
		t.Fatalf("second row %+v", env.Data[1])
	}

	_, env = testutil.Do[[]ClientView](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users?q=studio", nil))
	if len(env.Data) != 1 || env.Data[0].HWID != "hw-1" {
		t.Fatalf("filter: %+v", env.Data)
	}
}

func TestUsers_GetByHWID(t *testing.T) {
	app, _ := newApp(t)
	res, env := testutil.Do[ClientView](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users/hw-2", nil))
	if res.StatusCode != http.StatusOK || env.Data.Name != "Print PC" {
		t.Fatalf("get: %d %+v", res.StatusCode, env.Data)
	}
	if res, _ := testutil.Do[any](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users/nope", nil)); res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown hwid: %d", res.StatusCode)
	}
}

func TestUsers_ManageClientRelations(t *testing.T) {
	app, upstream := newApp(t)

	_, libs := testutil.Do[relation.View[domain.Library]](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users/hw-1/libraries", nil))
	if len(libs.Data.Assigned) != 1 || libs.Data.Assigned[0].Name != "Brand" || len(libs.Data.Available) != 1 {
		t.Fatalf("libraries: %+v", libs.Data)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/hw-2/groups", bytes.NewBufferString(`{"id":1}`))
	req.Header.Set("Content-Type", "application/json")
	if res, _ := testutil.Do[any](t, app, req); res.StatusCode != http.StatusNoContent {
		t.Fatalf("assign group: %d", res.StatusCode)
	}
	_, groups := testutil.Do[relation.View[domain.Group]](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users/hw-2/groups", nil))
	if len(groups.Data.Assigned) != 1 || len(groups.Data.Available) != 0 {
		t.Fatalf("groups after assign: %+v", groups.Data)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/hw-1/libraries/move", bytes.NewBufferString(`{"id":1,"to":"available"}`))
	req.Header.Set("Content-Type", "application/json")
	if res, _ := testutil.Do[any](t, app, req); res.StatusCode != http.StatusOK {
		t.Fatalf("move library: %d", res.StatusCode)
	}
	upstream.Lock()
	n := len(upstream.ClientLibs["hw-1"])
	upstream.Unlock()
	if n != 0 {
		t.Fatalf("library must be unassigned upstream")
	}
}
