package resources

import (
	"context"
	"io"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/fontapi"
	qc "fontier-admin/internal/querycache"
)

// Client relations

func (s *Service) AssignLibraryToClient(ctx context.Context, hwid string, libraryID int) error {
	return qc.Exec(ctx, s.cache, "assignLibraryToClient", func(ctx context.Context) error {
		return s.api.AssignLibraryToClient(ctx, hwid, libraryID)
	}, qc.Exact(qc.K(KindClientLibraries, hwid)))
}

func (s *Service) UnassignLibraryFromClient(ctx context.Context, hwid string, libraryID int) error {
	return qc.Exec(ctx, s.cache, "unassignLibraryFromClient", func(ctx context.Context) error {
		return s.api.UnassignLibraryFromClient(ctx, hwid, libraryID)
	}, qc.Exact(qc.K(KindClientLibraries, hwid)))
}

func (s *Service) AssignFontToClient(ctx context.Context, hwid string, fontID int) error {
	return qc.Exec(ctx, s.cache, "assignFontToClient", func(ctx context.Context) error {
		return s.api.AssignFontToClient(ctx, hwid, fontID)
	}, qc.Exact(qc.K(KindClientFonts, hwid)))
}

func (s *Service) UnassignFontFromClient(ctx context.Context, hwid string, fontID int) error {
	return qc.Exec(ctx, s.cache, "unassignFontFromClient", func(ctx context.Context) error {
		return s.api.UnassignFontFromClient(ctx, hwid, fontID)
	}, qc.Exact(qc.K(KindClientFonts, hwid)))
}

func (s *Service) AssignGroupToClient(ctx context.Context, hwid string, groupID int) error {
	return qc.Exec(ctx, s.cache, "assignGroupToClient", func(ctx context.Context) error {
		return s.api.AssignGroupToClient(ctx, hwid, groupID)
	}, qc.Exact(qc.K(KindClientGroups, hwid)))
}

func (s *Service) UnassignGroupFromClient(ctx context.Context, hwid string, groupID int) error {
	return qc.Exec(ctx, s.cache, "unassignGroupFromClient", func(ctx context.Context) error {
		return s.api.UnassignGroupFromClient(ctx, hwid, groupID)
	}, qc.Exact(qc.K(KindClientGroups, hwid)))
}

// Fonts

// UploadFont stores a new font. A file whose content hash already exists fails with an
// error matching fontapi.ErrConflict.
func (s *Service) UploadFont(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error) {
	return qc.Mutate(ctx, s.cache, "uploadFont", func(ctx context.Context) (domain.UploadResult, error) {
		return s.api.UploadFont(ctx, filename, r)
	}, func(domain.UploadResult) []qc.Dep {
		return []qc.Dep{qc.AllOf(KindFonts)}
	})
}

// Libraries

func libraryDeps(l domain.Library) []qc.Dep {
	return []qc.Dep{qc.AllOf(KindLibraries), qc.Exact(qc.K(KindLibrary, l.ID))}
}

func (s *Service) CreateLibrary(ctx context.Context, in fontapi.LibraryInput) (domain.Library, error) {
	return qc.Mutate(ctx, s.cache, "createLibrary", func(ctx context.Context) (domain.Library, error) {
		return s.api.CreateLibrary(ctx, in)
	}, libraryDeps)
}

func (s *Service) UpdateLibrary(ctx context.Context, id int, in fontapi.LibraryInput) (domain.Library, error) {
	return qc.Mutate(ctx, s.cache, "updateLibrary", func(ctx context.Context) (domain.Library, error) {
		return s.api.UpdateLibrary(ctx, id, in)
	}, func(domain.Library) []qc.Dep {
		// the path id is authoritative even if the response omits it
		return libraryDeps(domain.Library{ID: id})
	})
}

func (s *Service) AddFontToLibrary(ctx context.Context, libraryID, fontID int) error {
	return qc.Exec(ctx, s.cache, "assignFontToLibrary", func(ctx context.Context) error {
		return s.api.AddFontToLibrary(ctx, libraryID, fontID)
	}, qc.Exact(qc.K(KindLibraryFonts, libraryID)))
}

func (s *Service) RemoveFontFromLibrary(ctx context.Context, libraryID, fontID int) error {
	return qc.Exec(ctx, s.cache, "unassignFontFromLibrary", func(ctx context.Context) error {
		return s.api.RemoveFontFromLibrary(ctx, libraryID, fontID)
	}, qc.Exact(qc.K(KindLibraryFonts, libraryID)))
}

// Groups

func (s *Service) CreateGroup(ctx context.Context, in fontapi.GroupInput) (domain.Group, error) {
	return qc.Mutate(ctx, s.cache, "createGroup", func(ctx context.Context) (domain.Group, error) {
		return s.api.CreateGroup(ctx, in)
	}, func(domain.Group) []qc.Dep {
		return []qc.Dep{qc.AllOf(KindGroups)}
	})
}

func (s *Service) AddClientToGroup(ctx context.Context, groupID int, hwid string) error {
	return qc.Exec(ctx, s.cache, "addClientToGroup", func(ctx context.Context) error {
		return s.api.AddClientToGroup(ctx, groupID, hwid)
	}, qc.Exact(qc.K(KindGroup, groupID)), qc.Exact(qc.K(KindClientGroups, hwid)))
}

func (s *Service) RemoveClientFromGroup(ctx context.Context, groupID int, hwid string) error {
	return qc.Exec(ctx, s.cache, "removeClientFromGroup", func(ctx context.Context) error {
		return s.api.RemoveClientFromGroup(ctx, groupID, hwid)
	}, qc.Exact(qc.K(KindGroup, groupID)), qc.Exact(qc.K(KindClientGroups, hwid)))
}

// AddLibraryToGroup also reaches every member client, so all client library lists go stale.
func (s *Service) AddLibraryToGroup(ctx context.Context, groupID, libraryID int) error {
	return qc.Exec(ctx, s.cache, "addLibraryToGroup", func(ctx context.Context) error {
		return s.api.AddLibraryToGroup(ctx, groupID, libraryID)
	}, qc.Exact(qc.K(KindGroup, groupID)), qc.AllOf(KindClientLibraries))
}

func (s *Service) AddFontToGroup(ctx context.Context, groupID, fontID int) error {
	return qc.Exec(ctx, s.cache, "addFontToGroup", func(ctx context.Context) error {
		return s.api.AddFontToGroup(ctx, groupID, fontID)
	}, qc.Exact(qc.K(KindGroup, groupID)), qc.AllOf(KindClientFonts))
}
