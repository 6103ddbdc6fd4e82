package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/assign"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/fontapi/fontapitest"
	"fontier-admin/internal/logx"
	"fontier-admin/internal/querycache"
	"fontier-admin/internal/resources"
)

// NewService wires a resource facade to a fresh in-memory API.
func NewService(t testing.TB) (*resources.Service, *fontapitest.Server) {
	t.Helper()
	upstream := fontapitest.New(t)
	api, err := fontapi.New(upstream.BaseURL(),
		fontapi.WithHTTPClient(upstream.Client()),
		fontapi.WithLogger(logx.Nop()),
	)
	if err != nil {
		t.Fatalf("fontapi client: %v", err)
	}
	cache := querycache.New(querycache.WithLogger(logx.Nop()))
	t.Cleanup(cache.Close)
	return resources.New(api, cache, assign.NewEngine()), upstream
}

// Envelope is the decoded success or error body.
type Envelope[T any] struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

// Do runs req against app and decodes the envelope.
func Do[T any](t testing.TB, app *fiber.App, req *http.Request) (*http.Response, Envelope[T]) {
	t.Helper()
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	var env Envelope[T]
	raw, _ := io.ReadAll(res.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, raw, err)
		}
	}
	return res, env
}
