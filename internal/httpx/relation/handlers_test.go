package relation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/httpx/kit/testutil"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	svc, _ := testutil.NewService(t)
	return testutil.NewApp(func(app *fiber.App) {
		Mount(app, "/clients/:hwid/fonts", "hwid", svc.ClientFonts)
	})
}

func TestPartition_FiltersAvailableOnly(t *testing.T) {
	app := newApp(t)
	res, env := testutil.Do[View[domain.Font]](t, app, httptest.NewRequest(http.MethodGet, "/clients/hw-1/fonts?q=int", nil))
	if res.StatusCode != http.StatusOK || !env.Data.Ready {
		t.Fatalf("status %d %+v", res.StatusCode, env.Data)
	}
	if len(env.Data.Assigned) != 1 || env.Data.Assigned[0].Name != "Helvetica" {
		t.Fatalf("assigned must ignore q: %+v", env.Data.Assigned)
	}
	if len(env.Data.Available) != 1 || env.Data.Available[0].Name != "Inter" {
		t.Fatalf("available: %+v", env.Data.Available)
	}
	if !env.Data.CanUnassign {
		t.Fatalf("client fonts support unassign")
	}
}

func TestAssignUnassignMove(t *testing.T) {
	app := newApp(t)

	if res, _ := testutil.Do[any](t, app, jsonRequest(http.MethodPost, "/clients/hw-1/fonts", `{"id":1}`)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("assign: %d", res.StatusCode)
	}
	_, env := testutil.Do[View[domain.Font]](t, app, httptest.NewRequest(http.MethodGet, "/clients/hw-1/fonts", nil))
	if len(env.Data.Assigned) != 2 || len(env.Data.Available) != 1 {
		t.Fatalf("after assign: %+v", env.Data)
	}

	if res, _ := testutil.Do[any](t, app, httptest.NewRequest(http.MethodDelete, "/clients/hw-1/fonts/2", nil)); res.StatusCode != http.StatusNoContent {
		t.Fatalf("unassign: %d", res.StatusCode)
	}

	_, moved := testutil.Do[map[string]bool](t, app, jsonRequest(http.MethodPost, "/clients/hw-1/fonts/move", `{"id":3,"to":"assigned"}`))
	if !moved.Data["moved"] {
		t.Fatalf("move to assigned: %+v", moved.Data)
	}
	_, again := testutil.Do[map[string]bool](t, app, jsonRequest(http.MethodPost, "/clients/hw-1/fonts/move", `{"id":3,"to":"assigned"}`))
	if again.Data["moved"] {
		t.Fatalf("drop on the current column must be a no-op")
	}

	_, env = testutil.Do[View[domain.Font]](t, app, httptest.NewRequest(http.MethodGet, "/clients/hw-1/fonts", nil))
	if len(env.Data.Assigned) != 2 || len(env.Data.Available) != 1 || env.Data.Available[0].ID != 2 {
		t.Fatalf("final partition: %+v", env.Data)
	}
}

func TestRelation_BadRequests(t *testing.T) {
	app := newApp(t)
	cases := []struct {
		req    *http.Request
		status int
	}{
		{jsonRequest(http.MethodPost, "/clients/hw-1/fonts", `{}`), http.StatusBadRequest},
		{jsonRequest(http.MethodPost, "/clients/hw-1/fonts", `{"id":42}`), http.StatusNotFound},
		{httptest.NewRequest(http.MethodDelete, "/clients/hw-1/fonts/x", nil), http.StatusBadRequest},
		{jsonRequest(http.MethodPost, "/clients/hw-1/fonts/move", `{"id":1,"to":"sideways"}`), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if res, _ := testutil.Do[any](t, app, tc.req); res.StatusCode != tc.status {
			t.Fatalf("%s %s: got %d, want %d", tc.req.Method, tc.req.URL, res.StatusCode, tc.status)
		}
	}
}
