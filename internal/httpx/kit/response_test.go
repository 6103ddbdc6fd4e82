package kit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/querycache"
)

func TestOKEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		return OK(c, fiber.Map{"x": 1})
	})
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "OK" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if _, ok := body["meta"]; ok {
		t.Fatalf("meta only belongs on lists: %v", body)
	}
}

func TestListSnapshot_CarriesFreshness(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	snap := querycache.Snapshot[[]domain.Font]{
		Status:    querycache.StatusError,
		HasData:   true,
		Data:      []domain.Font{{ID: 1, Name: "Lato"}, {ID: 2, Name: "Roboto"}, {ID: 3, Name: "Rubik"}},
		Err:       errors.New("upstream down"),
		UpdatedAt: at,
		Stale:     true,
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/fonts", func(c *fiber.Ctx) error {
		return ListSnapshot(c, snap, 6, SortWhitelist[domain.Font]{"name": ByName[domain.Font]})
	})
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/fonts?q=r&sort=name:desc", nil))
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	if res.StatusCode != http.StatusOK || res.Header.Get("X-Query-Error") != "upstream down" {
		t.Fatalf("status=%d query error=%q", res.StatusCode, res.Header.Get("X-Query-Error"))
	}
	var body struct {
		Data []domain.Font `json:"data"`
		Meta PageMeta      `json:"meta"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].Name != "Rubik" {
		t.Fatalf("data: %+v", body.Data)
	}
	if !body.Meta.Stale || body.Meta.UpdatedAt == nil || !body.Meta.UpdatedAt.Equal(at) || body.Meta.Total != 2 {
		t.Fatalf("meta: %+v", body.Meta)
	}
}

func TestNoContent(t *testing.T) {
	app := fiber.New()
	app.Delete("/t", NoContent)
	res, err := app.Test(httptest.NewRequest(http.MethodDelete, "/t", nil))
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status: %d", res.StatusCode)
	}
}
