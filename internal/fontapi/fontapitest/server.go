// Package fontapitest runs an in-memory font-distribution API for tests.
package fontapitest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"fontier-admin/internal/domain"
)

// Server is a stateful fake of the remote API rooted at URL()+"/api".
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	Clients       []domain.Client
	Fonts         []domain.Font
	Libraries     []domain.Library
	Groups        []domain.Group
	ClientLibs    map[string][]int
	ClientFonts   map[string][]int
	ClientGroups  map[string][]int
	LibraryFonts  map[int][]int
	GroupClients  map[int][]string
	GroupLibs     map[int][]int
	GroupFonts    map[int][]int
	Activity      []domain.ClientActivity
	MaxUploadSize int

	hits  map[string]int
	fails map[string]failure
}

type failure struct {
	status  int
	message string
}

// New starts a server seeded with a small catalogue and registers Close on t.
func New(t testing.TB) *Server {
	s := &Server{
		Clients: []domain.Client{
			{ID: 1, HWID: "hw-1", Name: "Studio Mac", Active: true, LastSeen: "2026-10-01T10:00:00Z"},
			{ID: 2, HWID: "hw-2", Name: "Print PC", Active: false},
		},
		Fonts: []domain.Font{
			{ID: 1, Name: "Arial", Style: "Regular", FileHash: "h1", FileType: "ttf"},
			{ID: 2, Name: "Helvetica", Style: "Bold", FileHash: "h2", FileType: "otf"},
			{ID: 3, Name: "Inter", Style: "Regular", FileHash: "h3", FileType: "woff2"},
		},
		Libraries: []domain.Library{
			{ID: 1, Name: "Brand", Description: "Corporate fonts"},
			{ID: 2, Name: "Display"},
		},
		Groups: []domain.Group{
			{ID: 1, Name: "Design", Description: "Design team"},
		},
		ClientLibs:    map[string][]int{"hw-1": {1}},
		ClientFonts:   map[string][]int{"hw-1": {2}},
		ClientGroups:  map[string][]int{},
		LibraryFonts:  map[int][]int{1: {1, 2}},
		GroupClients:  map[int][]string{},
		GroupLibs:     map[int][]int{},
		GroupFonts:    map[int][]int{},
		Activity:      []domain.ClientActivity{{Date: "2026-10-01", ActiveClients: 1}},
		MaxUploadSize: 1 << 20,
		hits:          map[string]int{},
		fails:         map[string]failure{},
	}
	s.Server = httptest.NewServer(adaptor.FiberApp(s.routes()))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to fontapi.New.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// Hits reports how often the route pattern (e.g. "GET /api/fonts") was served.
func (s *Server) Hits(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[pattern]
}

// Fail makes pattern answer status with message until Recover is called.
func (s *Server) Fail(pattern string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[pattern] = failure{status: status, message: message}
}

// Recover clears a failure set by Fail.
func (s *Server) Recover(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fails, pattern)
}

// Lock exposes the state mutex so tests can edit the catalogue in place.
func (s *Server) Lock()   { s.mu.Lock() }
func (s *Server) Unlock() { s.mu.Unlock() }

type handler func(c *fiber.Ctx) (any, int)

var pathParam = regexp.MustCompile(`\{(\w+)\}`)

func (s *Server) routes() *fiber.App {
	app := fiber.New(fiber.Config{Immutable: true, BodyLimit: 64 << 20})
	// pattern is "METHOD /path/{param}", the key Hits and Fail use.
	handle := func(pattern string, h handler) {
		method, path, _ := strings.Cut(pattern, " ")
		app.Add(method, pathParam.ReplaceAllString(path, ":$1"), func(c *fiber.Ctx) error {
			s.mu.Lock()
			s.hits[pattern]++
			f, failing := s.fails[pattern]
			var body any
			status := http.StatusOK
			if !failing {
				body, status = h(c)
			}
			s.mu.Unlock()
			if failing {
				return c.Status(f.status).JSON(msg(f.message))
			}
			if status == http.StatusNoContent || body == nil {
				return c.SendStatus(status)
			}
			return c.Status(status).JSON(body)
		})
	}

	handle("GET /api/clients", func(*fiber.Ctx) (any, int) { return s.Clients, http.StatusOK })
	handle("GET /api/clients/{hwid}", func(c *fiber.Ctx) (any, int) {
		hwid := c.Params("hwid")
		i := slices.IndexFunc(s.Clients, func(cl domain.Client) bool { return cl.HWID == hwid })
		if i < 0 {
			return msg("client not found"), http.StatusNotFound
		}
		return s.Clients[i], http.StatusOK
	})
	handle("GET /api/clients/{hwid}/libraries", func(c *fiber.Ctx) (any, int) {
		return pick(s.Libraries, s.ClientLibs[c.Params("hwid")]), http.StatusOK
	})
	handle("GET /api/clients/{hwid}/fonts", func(c *fiber.Ctx) (any, int) {
		return pick(s.Fonts, s.ClientFonts[c.Params("hwid")]), http.StatusOK
	})
	handle("GET /api/clients/{hwid}/groups", func(c *fiber.Ctx) (any, int) {
		return pick(s.Groups, s.ClientGroups[c.Params("hwid")]), http.StatusOK
	})
	s.relation(handle, "/api/clients/{hwid}/libraries", "libraryId", s.ClientLibs)
	s.relation(handle, "/api/clients/{hwid}/fonts", "fontId", s.ClientFonts)
	s.relation(handle, "/api/clients/{hwid}/groups", "groupId", s.ClientGroups)

	handle("GET /api/fonts", func(*fiber.Ctx) (any, int) { return s.Fonts, http.StatusOK })
	handle("GET /api/fonts/{id}", func(c *fiber.Ctx) (any, int) {
		return byID(s.Fonts, c.Params("id"))
	})
	handle("POST /api/fonts", s.upload)

	handle("GET /api/libraries", func(*fiber.Ctx) (any, int) { return s.Libraries, http.StatusOK })
	handle("GET /api/libraries/{id}", func(c *fiber.Ctx) (any, int) {
		return byID(s.Libraries, c.Params("id"))
	})
	handle("POST /api/libraries", func(c *fiber.Ctx) (any, int) {
		var in domain.Library
		if err := json.Unmarshal(c.Body(), &in); err != nil || in.Name == "" {
			return msg("name is required"), http.StatusBadRequest
		}
		in.ID = len(s.Libraries) + 1
		s.Libraries = append(s.Libraries, in)
		return in, http.StatusCreated
	})
	handle("PUT /api/libraries/{id}", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		i := slices.IndexFunc(s.Libraries, func(l domain.Library) bool { return l.ID == id })
		if i < 0 {
			return msg("library not found"), http.StatusNotFound
		}
		var in domain.Library
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return msg(err.Error()), http.StatusBadRequest
		}
		s.Libraries[i].Name, s.Libraries[i].Description = in.Name, in.Description
		return s.Libraries[i], http.StatusOK
	})
	handle("GET /api/libraries/{id}/fonts", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		return pick(s.Fonts, s.LibraryFonts[id]), http.StatusOK
	})
	handle("POST /api/libraries/{id}/fonts", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		fontID, ok := intField(c, "fontId")
		if !ok {
			return msg("fontId is required"), http.StatusBadRequest
		}
		s.LibraryFonts[id] = appendUnique(s.LibraryFonts[id], fontID)
		return nil, http.StatusNoContent
	})
	handle("DELETE /api/libraries/{id}/fonts/{fontId}", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		fontID, _ := strconv.Atoi(c.Params("fontId"))
		s.LibraryFonts[id] = slices.DeleteFunc(s.LibraryFonts[id], func(v int) bool { return v == fontID })
		return nil, http.StatusNoContent
	})

	handle("GET /api/groups", func(*fiber.Ctx) (any, int) { return s.Groups, http.StatusOK })
	handle("GET /api/groups/{id}", func(c *fiber.Ctx) (any, int) {
		return byID(s.Groups, c.Params("id"))
	})
	handle("POST /api/groups", func(c *fiber.Ctx) (any, int) {
		var in domain.Group
		if err := json.Unmarshal(c.Body(), &in); err != nil || in.Name == "" {
			return msg("name is required"), http.StatusBadRequest
		}
		in.ID = len(s.Groups) + 1
		s.Groups = append(s.Groups, in)
		return in, http.StatusCreated
	})
	handle("POST /api/groups/{id}/clients", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		var in struct {
			ClientID string `json:"clientId"`
		}
		if err := json.Unmarshal(c.Body(), &in); err != nil || in.ClientID == "" {
			return msg("clientId is required"), http.StatusBadRequest
		}
		if !slices.Contains(s.GroupClients[id], in.ClientID) {
			s.GroupClients[id] = append(s.GroupClients[id], in.ClientID)
		}
		s.ClientGroups[in.ClientID] = appendUnique(s.ClientGroups[in.ClientID], id)
		return nil, http.StatusNoContent
	})
	handle("DELETE /api/groups/{id}/clients/{hwid}", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		hwid := c.Params("hwid")
		s.GroupClients[id] = slices.DeleteFunc(s.GroupClients[id], func(v string) bool { return v == hwid })
		s.ClientGroups[hwid] = slices.DeleteFunc(s.ClientGroups[hwid], func(v int) bool { return v == id })
		return nil, http.StatusNoContent
	})
	handle("POST /api/groups/{id}/libraries", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		libID, ok := intField(c, "libraryId")
		if !ok {
			return msg("libraryId is required"), http.StatusBadRequest
		}
		s.GroupLibs[id] = appendUnique(s.GroupLibs[id], libID)
		return nil, http.StatusNoContent
	})
	handle("POST /api/groups/{id}/fonts", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		fontID, ok := intField(c, "fontId")
		if !ok {
			return msg("fontId is required"), http.StatusBadRequest
		}
		s.GroupFonts[id] = appendUnique(s.GroupFonts[id], fontID)
		return nil, http.StatusNoContent
	})

	handle("GET /api/analytics/client-activity", func(*fiber.Ctx) (any, int) {
		return s.Activity, http.StatusOK
	})
	handle("GET /api/analytics/library-distribution", func(*fiber.Ctx) (any, int) {
		out := make([]domain.LibraryDistribution, 0, len(s.Libraries))
		for _, l := range s.Libraries {
			out = append(out, domain.LibraryDistribution{LibraryID: l.ID, FontCount: len(s.LibraryFonts[l.ID])})
		}
		return out, http.StatusOK
	})
	return app
}

// relation registers POST base {field} and DELETE base/{id} over members.
func (s *Server) relation(handle func(string, handler), base, field string, members map[string][]int) {
	handle("POST "+base, func(c *fiber.Ctx) (any, int) {
		id, ok := intField(c, field)
		if !ok {
			return msg(field + " is required"), http.StatusBadRequest
		}
		hwid := c.Params("hwid")
		members[hwid] = appendUnique(members[hwid], id)
		return nil, http.StatusNoContent
	})
	handle("DELETE "+base+"/{id}", func(c *fiber.Ctx) (any, int) {
		id, _ := strconv.Atoi(c.Params("id"))
		hwid := c.Params("hwid")
		members[hwid] = slices.DeleteFunc(members[hwid], func(v int) bool { return v == id })
		return nil, http.StatusNoContent
	})
}

func (s *Server) upload(c *fiber.Ctx) (any, int) {
	hdr, err := c.FormFile("file")
	if err != nil {
		return msg("file is required"), http.StatusBadRequest
	}
	file, err := hdr.Open()
	if err != nil {
		return msg(err.Error()), http.StatusBadRequest
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return msg(err.Error()), http.StatusBadRequest
	}
	if len(data) > s.MaxUploadSize {
		return msg("payload too large"), http.StatusRequestEntityTooLarge
	}
	ext := ""
	if i := lastDot(hdr.Filename); i >= 0 {
		ext = hdr.Filename[i+1:]
	}
	if !slices.Contains([]string{"ttf", "otf", "woff", "woff2"}, ext) {
		return msg("unsupported media type"), http.StatusUnsupportedMediaType
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if slices.ContainsFunc(s.Fonts, func(f domain.Font) bool { return f.FileHash == hash }) {
		return msg("duplicate font"), http.StatusConflict
	}
	f := domain.Font{
		ID:       len(s.Fonts) + 1,
		Name:     hdr.Filename[:len(hdr.Filename)-len(ext)-1],
		FileHash: hash,
		FileType: ext,
		FilePath: "/fonts/" + hdr.Filename,
	}
	s.Fonts = append(s.Fonts, f)
	return f, http.StatusCreated
}

func lastDot(name string) int {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return i
		}
	}
	return -1
}

func msg(m string) map[string]string { return map[string]string{"message": m} }

func intField(c *fiber.Ctx, name string) (int, bool) {
	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return 0, false
	}
	v, ok := body[name].(float64)
	return int(v), ok
}

func appendUnique(ids []int, id int) []int {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func pick[T domain.Identified](all []T, ids []int) []T {
	out := []T{}
	for _, t := range all {
		if slices.Contains(ids, t.Key()) {
			out = append(out, t)
		}
	}
	return out
}

func byID[T domain.Identified](all []T, raw string) (any, int) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return msg("bad id"), http.StatusBadRequest
	}
	i := slices.IndexFunc(all, func(t T) bool { return t.Key() == id })
	if i < 0 {
		return msg("not found"), http.StatusNotFound
	}
	return all[i], http.StatusOK
}
