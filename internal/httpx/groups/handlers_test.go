package groups

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi/fontapitest"
	"fontier-admin/internal/httpx/kit/testutil"
	"fontier-admin/internal/resources"
)

func newApp(t *testing.T) (*fiber.App, *resources.Service, *fontapitest.Server) {
	t.Helper()
	svc, upstream := testutil.NewService(t)
	app := testutil.NewApp(func(app *fiber.App) {
		Mount(app.Group("/api/v1"), svc, func() int { return 6 })
	})
	return app, svc, upstream
}

func post(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGroups_Create_List_Get(t *testing.T) {
	app, _, _ := newApp(t)
	testutil.Do[any](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil))

	res, created := testutil.Do[domain.Group](t, app, post("/api/v1/groups", `{"name":"Print","description":"Print shop"}`))
	if res.StatusCode != http.StatusCreated || created.Data.ID != 2 {
		t.Fatalf("create: %d %+v", res.StatusCode, created.Data)
	}
	_, list := testutil.Do[[]domain.Group](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/groups?q=shop", nil))
	if len(list.Data) != 1 || list.Data[0].Name != "Print" {
		t.Fatalf("list after create: %+v", list.Data)
	}
	_, got := testutil.Do[domain.Group](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/groups/1", nil))
	if got.Data.Name != "Design" {
		t.Fatalf("get: %+v", got.Data)
	}
	if res, _ := testutil.Do[any](t, app, post("/api/v1/groups", `{}`)); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing name: %d", res.StatusCode)
	}
}

func TestGroups_Membership(t *testing.T) {
	app, svc, upstream := newApp(t)
	ctx := t.Context()

	if got := svc.ClientGroupsOf(ctx, "hw-2"); len(got.Data) != 0 {
		t.Fatalf("seed: %+v", got.Data)
	}
	if res, _ := testutil.Do[any](t, app, post("/api/v1/groups/1/clients", `{"hwid":"hw-2"}`)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("add client: %d", res.StatusCode)
	}
	if got := svc.ClientGroupsOf(ctx, "hw-2"); len(got.Data) != 1 {
		t.Fatalf("client groups must refetch: %+v", got.Data)
	}
	if res, _ := testutil.Do[any](t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/groups/1/clients/hw-2", nil)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("remove client: %d", res.StatusCode)
	}
	if got := svc.ClientGroupsOf(ctx, "hw-2"); len(got.Data) != 0 {
		t.Fatalf("after removal: %+v", got.Data)
	}

	if res, _ := testutil.Do[any](t, app, post("/api/v1/groups/1/libraries", `{"id":2}`)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("add library: %d", res.StatusCode)
	}
	if res, _ := testutil.Do[any](t, app, post("/api/v1/groups/1/fonts", `{"id":3}`)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("add font: %d", res.StatusCode)
	}
	upstream.Lock()
	libs, fonts := slices.Clone(upstream.GroupLibs[1]), slices.Clone(upstream.GroupFonts[1])
	upstream.Unlock()
	if !slices.Equal(libs, []int{2}) || !slices.Equal(fonts, []int{3}) {
		t.Fatalf("upstream group members: libs=%v fonts=%v", libs, fonts)
	}

	if res, _ := testutil.Do[any](t, app, post("/api/v1/groups/1/fonts", `{"id":0}`)); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero id: %d", res.StatusCode)
	}
}
