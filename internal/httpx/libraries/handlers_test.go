package libraries

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi/fontapitest"
	"fontier-admin/internal/httpx/kit/testutil"
	"fontier-admin/internal/httpx/relation"
)

func newApp(t *testing.T) (*fiber.App, *fontapitest.Server) {
	t.Helper()
	svc, upstream := testutil.NewService(t)
	app := testutil.NewApp(func(app *fiber.App) {
		Mount(app.Group("/api/v1"), svc, func() int { return 6 })
	})
	return app, upstream
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLibraries_FilterMatchesDescription(t *testing.T) {
	app, _ := newApp(t)
	_, env := testutil.Do[[]domain.Library](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries?q=corporate", nil))
	if len(env.Data) != 1 || env.Data[0].Name != "Brand" {
		t.Fatalf("filter: %+v", env.Data)
	}
}

func TestLibraries_CreateThenListAndGet(t *testing.T) {
	app, _ := newApp(t)
	testutil.Do[any](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries", nil))

	res, created := testutil.Do[domain.Library](t, app, jsonRequest(http.MethodPost, "/api/v1/libraries", `{"name":" Web ","description":"Web fonts"}`))
	if res.StatusCode != http.StatusCreated || created.Data.Name != "Web" || created.Data.ID == 0 {
		t.Fatalf("create: %d %+v", res.StatusCode, created.Data)
	}

	_, list := testutil.Do[[]domain.Library](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries", nil))
	if len(list.Data) != 3 {
		t.Fatalf("list must include the new library: %+v", list.Data)
	}

	res, _ = testutil.Do[any](t, app, jsonRequest(http.MethodPost, "/api/v1/libraries", `{"name":"  "}`))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank name: %d", res.StatusCode)
	}
}

func TestLibraries_UpdateInvalidatesDetail(t *testing.T) {
	app, _ := newApp(t)
	_, before := testutil.Do[domain.Library](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries/2", nil))
	if before.Data.Name != "Display" {
		t.Fatalf("seed: %+v", before.Data)
	}
	res, _ := testutil.Do[domain.Library](t, app, jsonRequest(http.MethodPut, "/api/v1/libraries/2", `{"name":"Headlines"}`))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update: %d", res.StatusCode)
	}
	_, after := testutil.Do[domain.Library](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries/2", nil))
	if after.Data.Name != "Headlines" {
		t.Fatalf("detail must refetch after update: %+v", after.Data)
	}
}

func TestLibraries_FontEditor(t *testing.T) {
	app, upstream := newApp(t)

	_, env := testutil.Do[relation.View[domain.Font]](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries/1/fonts", nil))
	if len(env.Data.Assigned) != 2 || len(env.Data.Available) != 1 {
		t.Fatalf("seed partition: %+v", env.Data)
	}

	if res, _ := testutil.Do[any](t, app, jsonRequest(http.MethodPost, "/api/v1/libraries/1/fonts", `{"id":3}`)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("add font: %d", res.StatusCode)
	}
	if res, _ := testutil.Do[any](t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/libraries/1/fonts/1", nil)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("remove font: %d", res.StatusCode)
	}

	upstream.Lock()
	got := append([]int(nil), upstream.LibraryFonts[1]...)
	upstream.Unlock()
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("upstream membership %v", got)
	}

	_, env = testutil.Do[relation.View[domain.Font]](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/libraries/1/fonts", nil))
	if len(env.Data.Assigned) != 2 || env.Data.Available[0].ID != 1 {
		t.Fatalf("partition after edits: %+v", env.Data)
	}
}
