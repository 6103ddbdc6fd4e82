package fontapitest

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"fontier-admin/internal/domain"
)

func TestServer_RoutesCountHitsByPattern(t *testing.T) {
	s := New(t)

	res, err := http.Get(s.BaseURL() + "/clients/hw-1/libraries")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var libs []domain.Library
	_ = json.NewDecoder(res.Body).Decode(&libs)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || len(libs) != 1 || libs[0].ID != 1 {
		t.Fatalf("client libraries: %d %+v", res.StatusCode, libs)
	}
	if got := s.Hits("GET /api/clients/{hwid}/libraries"); got != 1 {
		t.Fatalf("hits: %d", got)
	}

	res, err = http.Post(s.BaseURL()+"/clients/hw-2/fonts", "application/json", strings.NewReader(`{"fontId":3}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	s.Lock()
	members := s.ClientFonts["hw-2"]
	s.Unlock()
	if res.StatusCode != http.StatusNoContent || len(members) != 1 || members[0] != 3 {
		t.Fatalf("assign: %d %v", res.StatusCode, members)
	}
}

func TestServer_FailAndRecover(t *testing.T) {
	s := New(t)
	s.Fail("GET /api/fonts/{id}", http.StatusServiceUnavailable, "maintenance")

	res, err := http.Get(s.BaseURL() + "/fonts/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body map[string]string
	_ = json.NewDecoder(res.Body).Decode(&body)
	res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable || body["message"] != "maintenance" {
		t.Fatalf("failing: %d %v", res.StatusCode, body)
	}

	s.Recover("GET /api/fonts/{id}")
	res, err = http.Get(s.BaseURL() + "/fonts/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || s.Hits("GET /api/fonts/{id}") != 2 {
		t.Fatalf("recovered: %d hits=%d", res.StatusCode, s.Hits("GET /api/fonts/{id}"))
	}
}
