// Package resources is the only way page handlers reach remote data: every read goes
// through the query cache and every write through a mutation that declares which
// cached queries it invalidates.
package resources

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"fontier-admin/internal/assign"
	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	qc "fontier-admin/internal/querycache"
)

// Query kinds. A kind plus an optional parameter is one cache key.
const (
	KindClients             = "clients"
	KindClient              = "client"
	KindClientLibraries     = "clientLibraries"
	KindClientFonts         = "clientFonts"
	KindClientGroups        = "clientGroups"
	KindFonts               = "fonts"
	KindFont                = "font"
	KindLibraries           = "libraries"
	KindLibrary             = "library"
	KindLibraryFonts        = "libraryFonts"
	KindGroups              = "groups"
	KindGroup               = "group"
	KindClientActivity      = "clientActivity"
	KindLibraryDistribution = "libraryDistribution"
)

// API is the subset of the remote client used here. *fontapi.Client implements it.
type API interface {
	Clients(ctx context.Context) ([]domain.Client, error)
	Client(ctx context.Context, hwid string) (domain.Client, error)
	ClientLibraries(ctx context.Context, hwid string) ([]domain.Library, error)
	ClientFonts(ctx context.Context, hwid string) ([]domain.Font, error)
	ClientGroups(ctx context.Context, hwid string) ([]domain.Group, error)
	AssignLibraryToClient(ctx context.Context, hwid string, libraryID int) error
	UnassignLibraryFromClient(ctx context.Context, hwid string, libraryID int) error
	AssignFontToClient(ctx context.Context, hwid string, fontID int) error
	UnassignFontFromClient(ctx context.Context, hwid string, fontID int) error
	AssignGroupToClient(ctx context.Context, hwid string, groupID int) error
	UnassignGroupFromClient(ctx context.Context, hwid string, groupID int) error

	Fonts(ctx context.Context) ([]domain.Font, error)
	Font(ctx context.Context, id int) (domain.Font, error)
	UploadFont(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error)

	Libraries(ctx context.Context) ([]domain.Library, error)
	Library(ctx context.Context, id int) (domain.Library, error)
	CreateLibrary(ctx context.Context, in fontapi.LibraryInput) (domain.Library, error)
	UpdateLibrary(ctx context.Context, id int, in fontapi.LibraryInput) (domain.Library, error)
	LibraryFonts(ctx context.Context, id int) ([]domain.Font, error)
	AddFontToLibrary(ctx context.Context, libraryID, fontID int) error
	RemoveFontFromLibrary(ctx context.Context, libraryID, fontID int) error

	Groups(ctx context.Context) ([]domain.Group, error)
	Group(ctx context.Context, id int) (domain.Group, error)
	CreateGroup(ctx context.Context, in fontapi.GroupInput) (domain.Group, error)
	AddClientToGroup(ctx context.Context, groupID int, hwid string) error
	RemoveClientFromGroup(ctx context.Context, groupID int, hwid string) error
	AddLibraryToGroup(ctx context.Context, groupID, libraryID int) error
	AddFontToGroup(ctx context.Context, groupID, fontID int) error

	ClientActivity(ctx context.Context) ([]domain.ClientActivity, error)
	LibraryDistribution(ctx context.Context) ([]domain.LibraryDistribution, error)
}

// Service binds the API to a cache and exposes the editable relations.
type Service struct {
	api   API
	cache *qc.Cache

	ClientLibraries *assign.Binding[domain.Library]
	ClientFonts     *assign.Binding[domain.Font]
	ClientGroups    *assign.Binding[domain.Group]
	LibraryFonts    *assign.Binding[domain.Font]
}

// New wires the relations on a shared assignment engine.
func New(api API, cache *qc.Cache, engine *assign.Engine) *Service {
	s := &Service{api: api, cache: cache}
	s.ClientLibraries = assign.Bind(engine, assign.Relation[domain.Library]{
		Name:     KindClientLibraries,
		All:      s.Libraries,
		Refresh:  s.refresh(KindLibraries),
		Assigned: s.ClientLibrariesOf,
		Assign: func(ctx context.Context, hwid string, l domain.Library) error {
			return s.AssignLibraryToClient(ctx, hwid, l.ID)
		},
		Unassign: func(ctx context.Context, hwid string, l domain.Library) error {
			return s.UnassignLibraryFromClient(ctx, hwid, l.ID)
		},
	})
	s.ClientFonts = assign.Bind(engine, assign.Relation[domain.Font]{
		Name:     KindClientFonts,
		All:      s.Fonts,
		Refresh:  s.refresh(KindFonts),
		Assigned: s.ClientFontsOf,
		Assign: func(ctx context.Context, hwid string, f domain.Font) error {
			return s.AssignFontToClient(ctx, hwid, f.ID)
		},
		Unassign: func(ctx context.Context, hwid string, f domain.Font) error {
			return s.UnassignFontFromClient(ctx, hwid, f.ID)
		},
	})
	s.ClientGroups = assign.Bind(engine, assign.Relation[domain.Group]{
		Name:     KindClientGroups,
		All:      s.Groups,
		Refresh:  s.refresh(KindGroups),
		Assigned: s.ClientGroupsOf,
		Assign: func(ctx context.Context, hwid string, g domain.Group) error {
			return s.AssignGroupToClient(ctx, hwid, g.ID)
		},
		Unassign: func(ctx context.Context, hwid string, g domain.Group) error {
			return s.UnassignGroupFromClient(ctx, hwid, g.ID)
		},
	})
	s.LibraryFonts = assign.Bind(engine, assign.Relation[domain.Font]{
		Name:    KindLibraryFonts,
		All:     s.Fonts,
		Refresh: s.refresh(KindFonts),
		Assigned: func(ctx context.Context, anchor string) qc.Snapshot[[]domain.Font] {
			id, err := strconv.Atoi(anchor)
			if err != nil {
				return qc.Snapshot[[]domain.Font]{Status: qc.StatusError, Err: fmt.Errorf("library id %q: %w", anchor, err)}
			}
			return s.LibraryFontsOf(ctx, id)
		},
		Assign: func(ctx context.Context, anchor string, f domain.Font) error {
			id, err := strconv.Atoi(anchor)
			if err != nil {
				return fmt.Errorf("library id %q: %w", anchor, err)
			}
			return s.AddFontToLibrary(ctx, id, f.ID)
		},
		Unassign: func(ctx context.Context, anchor string, f domain.Font) error {
			id, err := strconv.Atoi(anchor)
			if err != nil {
				return fmt.Errorf("library id %q: %w", anchor, err)
			}
			return s.RemoveFontFromLibrary(ctx, id, f.ID)
		},
	})
	return s
}

// refresh drops the cached full list of kind so the next read refetches it.
func (s *Service) refresh(kind string) func(context.Context) {
	return func(ctx context.Context) {
		s.cache.Invalidate(ctx, "refresh"+kind, qc.Exact(qc.K(kind)))
	}
}

// Cache exposes the underlying cache, for subscribers.
func (s *Service) Cache() *qc.Cache { return s.cache }

// Reads

func (s *Service) Clients(ctx context.Context) qc.Snapshot[[]domain.Client] {
	return qc.Query(ctx, s.cache, qc.K(KindClients), s.api.Clients)
}

func (s *Service) Client(ctx context.Context, hwid string) qc.Snapshot[domain.Client] {
	return qc.Query(ctx, s.cache, qc.K(KindClient, hwid), func(ctx context.Context) (domain.Client, error) {
		return s.api.Client(ctx, hwid)
	})
}

func (s *Service) ClientLibrariesOf(ctx context.Context, hwid string) qc.Snapshot[[]domain.Library] {
	return qc.Query(ctx, s.cache, qc.K(KindClientLibraries, hwid), func(ctx context.Context) ([]domain.Library, error) {
		return s.api.ClientLibraries(ctx, hwid)
	})
}

func (s *Service) ClientFontsOf(ctx context.Context, hwid string) qc.Snapshot[[]domain.Font] {
	return qc.Query(ctx, s.cache, qc.K(KindClientFonts, hwid), func(ctx context.Context) ([]domain.Font, error) {
		return s.api.ClientFonts(ctx, hwid)
	})
}

func (s *Service) ClientGroupsOf(ctx context.Context, hwid string) qc.Snapshot[[]domain.Group] {
	return qc.Query(ctx, s.cache, qc.K(KindClientGroups, hwid), func(ctx context.Context) ([]domain.Group, error) {
		return s.api.ClientGroups(ctx, hwid)
	})
}

func (s *Service) Fonts(ctx context.Context) qc.Snapshot[[]domain.Font] {
	return qc.Query(ctx, s.cache, qc.K(KindFonts), s.api.Fonts)
}

func (s *Service) Font(ctx context.Context, id int) qc.Snapshot[domain.Font] {
	return qc.Query(ctx, s.cache, qc.K(KindFont, id), func(ctx context.Context) (domain.Font, error) {
		return s.api.Font(ctx, id)
	})
}

func (s *Service) Libraries(ctx context.Context) qc.Snapshot[[]domain.Library] {
	return qc.Query(ctx, s.cache, qc.K(KindLibraries), s.api.Libraries)
}

func (s *Service) Library(ctx context.Context, id int) qc.Snapshot[domain.Library] {
	return qc.Query(ctx, s.cache, qc.K(KindLibrary, id), func(ctx context.Context) (domain.Library, error) {
		return s.api.Library(ctx, id)
	})
}

func (s *Service) LibraryFontsOf(ctx context.Context, id int) qc.Snapshot[[]domain.Font] {
	return qc.Query(ctx, s.cache, qc.K(KindLibraryFonts, id), func(ctx context.Context) ([]domain.Font, error) {
		return s.api.LibraryFonts(ctx, id)
	})
}

func (s *Service) Groups(ctx context.Context) qc.Snapshot[[]domain.Group] {
	return qc.Query(ctx, s.cache, qc.K(KindGroups), s.api.Groups)
}

func (s *Service) Group(ctx context.Context, id int) qc.Snapshot[domain.Group] {
	return qc.Query(ctx, s.cache, qc.K(KindGroup, id), func(ctx context.Context) (domain.Group, error) {
		return s.api.Group(ctx, id)
	})
}

func (s *Service) ClientActivity(ctx context.Context) qc.Snapshot[[]domain.ClientActivity] {
	return qc.Query(ctx, s.cache, qc.K(KindClientActivity), s.api.ClientActivity)
}

func (s *Service) LibraryDistribution(ctx context.Context) qc.Snapshot[[]domain.LibraryDistribution] {
	return qc.Query(ctx, s.cache, qc.K(KindLibraryDistribution), s.api.LibraryDistribution)
}
