package kit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/assign"
	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/querycache"
)

func TestErrorHandler_MapsUpstreamErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&fontapi.StatusError{Op: "uploadFont", Status: 409, Message: "dup"}, 409, "E_CONFLICT"},
		{&fontapi.StatusError{Op: "uploadFont", Status: 413}, 413, "E_TOO_LARGE"},
		{&fontapi.StatusError{Op: "uploadFont", Status: 415}, 415, "E_UNSUPPORTED_FORMAT"},
		{&fontapi.StatusError{Op: "getFont", Status: 404}, 404, "E_NOT_FOUND"},
		{&fontapi.StatusError{Op: "createLibrary", Status: 422, Message: "name taken"}, 422, "E_INVALID_PARAM"},
		{&fontapi.StatusError{Op: "getFonts", Status: 503}, 502, "E_UPSTREAM"},
		{fmt.Errorf("assign: %w", assign.ErrUnknownItem), 404, "E_NOT_FOUND"},
		{fmt.Errorf("rel: %w", assign.ErrUnsupported), 405, "E_UNSUPPORTED"},
		{errors.New("boom"), 500, "E_INTERNAL"},
		{BadRequest("bad", nil), 400, "E_INVALID_PARAM"},
	}
	for _, tc := range cases {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		err := tc.err
		app.Get("/t", func(*fiber.Ctx) error { return err })
		res, rerr := app.Test(httptest.NewRequest(http.MethodGet, "/t", nil))
		if rerr != nil {
			t.Fatalf("request: %v", rerr)
		}
		var body map[string]any
		_ = json.NewDecoder(res.Body).Decode(&body)
		if res.StatusCode != tc.status || body["code"] != tc.code {
			t.Fatalf("%v: got %d %v, want %d %s", tc.err, res.StatusCode, body["code"], tc.status, tc.code)
		}
	}
}

func TestFromError_MessageOverride(t *testing.T) {
	err := &fontapi.StatusError{Status: 409, Message: "dup"}
	if got := FromError(err, fontapi.MsgDuplicate); got.Message != fontapi.MsgDuplicate {
		t.Fatalf("override ignored: %q", got.Message)
	}
	if got := FromError(err, ""); got.Message != "dup" {
		t.Fatalf("server message lost: %q", got.Message)
	}
}

func TestParsePaging(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/p", func(c *fiber.Ctx) error {
		p, err := ParsePaging(c, 6)
		if err != nil {
			return err
		}
		items, meta := Page([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, p)
		return List(c, items, meta)
	})

	res, _ := app.Test(httptest.NewRequest(http.MethodGet, "/p?page=3&page_size=5&q=x", nil))
	var body struct {
		Data []int    `json:"data"`
		Meta PageMeta `json:"meta"`
	}
	_ = json.NewDecoder(res.Body).Decode(&body)
	if len(body.Data) != 3 || body.Data[0] != 11 || body.Meta.TotalPages != 3 || body.Meta.Total != 13 || body.Meta.Query != "x" {
		t.Fatalf("unexpected page %+v", body)
	}

	res, _ = app.Test(httptest.NewRequest(http.MethodGet, "/p?page=99", nil))
	_ = json.NewDecoder(res.Body).Decode(&body)
	if body.Meta.Page != 3 || body.Meta.PageSize != 6 || len(body.Data) != 1 {
		t.Fatalf("out-of-range page should clamp: %+v", body)
	}

	res, _ = app.Test(httptest.NewRequest(http.MethodGet, "/p?page=abc", nil))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed page: status %d", res.StatusCode)
	}
}

func TestApplySort(t *testing.T) {
	fonts := []domain.Font{{ID: 2, Name: "inter"}, {ID: 1, Name: "Arial"}, {ID: 3, Name: "Courier"}}
	wl := SortWhitelist[domain.Font]{"name": ByName[domain.Font], "id": ByID[domain.Font]}

	got, err := ApplySort(fonts, "name", wl)
	if err != nil || got[0].Name != "Arial" || got[2].Name != "inter" {
		t.Fatalf("name asc: %+v %v", got, err)
	}
	got, _ = ApplySort(fonts, "id:desc", wl)
	if got[0].ID != 3 || fonts[0].ID != 2 {
		t.Fatalf("id desc must sort a copy: %+v / %+v", got, fonts)
	}
	if _, err := ApplySort(fonts, "size", wl); err == nil {
		t.Fatalf("unknown field accepted")
	}
	if _, err := ApplySort(fonts, "name:up", wl); err == nil {
		t.Fatalf("bad direction accepted")
	}
}

func TestSectionOf(t *testing.T) {
	s := SectionOf(querycache.Snapshot[int]{Status: querycache.StatusError, Data: 4, HasData: true, Err: errors.New("502")})
	b, _ := json.Marshal(s)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if m["status"] != "error" || m["error"] != "502" || m["data"].(float64) != 4 {
		t.Fatalf("unexpected section %s", b)
	}
}

func TestBind_FieldDetails(t *testing.T) {
	type moveBody struct {
		ID int    `json:"id" validate:"gt=0"`
		To string `json:"to" validate:"oneof=assigned available"`
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Post("/t", func(c *fiber.Ctx) error {
		var body moveBody
		if err := Bind(c, &body); err != nil {
			return err
		}
		return OK(c, body)
	})
	send := func(raw string) (int, map[string]any) {
		req := httptest.NewRequest(http.MethodPost, "/t", strings.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		var body map[string]any
		_ = json.NewDecoder(res.Body).Decode(&body)
		return res.StatusCode, body
	}

	if status, _ := send(`{"id":1,"to":"assigned"}`); status != http.StatusOK {
		t.Fatalf("valid body: %d", status)
	}
	status, body := send(`{"id":0,"to":"sideways"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("invalid body: %d", status)
	}
	details, _ := body["details"].(map[string]any)
	if details["id"] != "must be greater than 0" || details["to"] != "must be one of: assigned available" {
		t.Fatalf("details: %v", body)
	}
	if status, _ := send(`{"id":`); status != http.StatusBadRequest {
		t.Fatalf("malformed body: %d", status)
	}
}

func TestErrorHandler_BodyLimitOnUpload(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(), BodyLimit: 1024})
	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusCreated) }
	app.Post("/api/v1/fonts", ok)
	app.Post("/api/v1/libraries", ok)

	body := strings.Repeat("x", 4096)
	cases := []struct {
		path string
		msg  string
	}{
		{"/api/v1/fonts", fontapi.MsgTooLarge},
		{"/api/v1/libraries", "Request Entity Too Large"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/octet-stream")
		res, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		var got struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&got)
		res.Body.Close()
		if res.StatusCode != http.StatusRequestEntityTooLarge || got.Code != "E_TOO_LARGE" || got.Message != tc.msg {
			t.Fatalf("%s: %d %+v", tc.path, res.StatusCode, got)
		}
	}
}
