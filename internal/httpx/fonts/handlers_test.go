package fonts

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/httpx/kit/testutil"
)

func newApp(t *testing.T) (*fiber.App, func() int) {
	t.Helper()
	svc, upstream := testutil.NewService(t)
	hits := func() int { return upstream.Hits("GET /api/fonts") }
	app := testutil.NewApp(func(app *fiber.App) {
		Mount(app.Group("/api/v1"), svc, func() int { return 2 })
	})
	return app, hits
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fonts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestFonts_ListFilterAndPage(t *testing.T) {
	app, _ := newApp(t)

	res, env := testutil.Do[[]domain.Font](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts?page=2", nil))
	if res.StatusCode != http.StatusOK || len(env.Data) != 1 || env.Data[0].Name != "Inter" {
		t.Fatalf("page 2: %d %+v", res.StatusCode, env.Data)
	}
	var meta kit.PageMeta
	_ = json.Unmarshal(env.Meta, &meta)
	if meta.TotalPages != 2 || meta.Total != 3 || meta.PageSize != 2 {
		t.Fatalf("meta %+v", meta)
	}

	_, env = testutil.Do[[]domain.Font](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts?q=EL", nil))
	if len(env.Data) != 1 || env.Data[0].Name != "Helvetica" {
		t.Fatalf("filter: %+v", env.Data)
	}

	_, env = testutil.Do[[]domain.Font](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts?sort=name:desc", nil))
	if env.Data[0].Name != "Inter" {
		t.Fatalf("sort: %+v", env.Data)
	}
}

func TestFonts_Get(t *testing.T) {
	app, _ := newApp(t)
	res, env := testutil.Do[domain.Font](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts/2", nil))
	if res.StatusCode != http.StatusOK || env.Data.Name != "Helvetica" {
		t.Fatalf("get: %d %+v", res.StatusCode, env.Data)
	}
	res, _ = testutil.Do[any](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts/99", nil))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing font: %d", res.StatusCode)
	}
	res, _ = testutil.Do[any](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts/abc", nil))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id: %d", res.StatusCode)
	}
}

func TestFonts_UploadRefreshesList(t *testing.T) {
	app, hits := newApp(t)
	testutil.Do[any](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts", nil))

	res, env := testutil.Do[domain.UploadResult](t, app, uploadRequest(t, "Mono.ttf", []byte("glyphs")))
	if res.StatusCode != http.StatusCreated || env.Data.Font == nil || env.Data.Font.Name != "Mono" {
		t.Fatalf("upload: %d %+v", res.StatusCode, env.Data)
	}

	_, list := testutil.Do[[]domain.Font](t, app, httptest.NewRequest(http.MethodGet, "/api/v1/fonts?page_size=10", nil))
	if len(list.Data) != 4 || hits() != 2 {
		t.Fatalf("list after upload: %d fonts, %d fetches", len(list.Data), hits())
	}
}

func TestFonts_UploadErrorMessages(t *testing.T) {
	app, _ := newApp(t)
	if res, _ := testutil.Do[any](t, app, uploadRequest(t, "Mono.ttf", []byte("glyphs"))); res.StatusCode != http.StatusCreated {
		t.Fatalf("seed upload: %d", res.StatusCode)
	}

	cases := []struct {
		name     string
		filename string
		content  []byte
		status   int
		message  string
	}{
		{"duplicate content", "Other.ttf", []byte("glyphs"), http.StatusConflict, fontapi.MsgDuplicate},
		{"format", "readme.txt", []byte("text"), http.StatusUnsupportedMediaType, fontapi.MsgInvalidFormat},
		{"size", "Huge.otf", bytes.Repeat([]byte("x"), 2<<20), http.StatusRequestEntityTooLarge, fontapi.MsgTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, env := testutil.Do[any](t, app, uploadRequest(t, tc.filename, tc.content))
			if res.StatusCode != tc.status || env.Message != tc.message {
				t.Fatalf("got %d %q", res.StatusCode, env.Message)
			}
		})
	}
}

func TestFonts_UploadWithoutFile(t *testing.T) {
	app, _ := newApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fonts", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	if res, _ := testutil.Do[any](t, app, req); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
}
