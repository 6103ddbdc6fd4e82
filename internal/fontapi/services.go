package fontapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"fontier-admin/internal/domain"
)

// Clients

func (c *Client) Clients(ctx context.Context) ([]domain.Client, error) {
	return get[[]domain.Client](ctx, c, "getClients", "/clients")
}

func (c *Client) Client(ctx context.Context, hwid string) (domain.Client, error) {
	return get[domain.Client](ctx, c, "getClient", "/clients/"+seg(hwid))
}

func (c *Client) ClientLibraries(ctx context.Context, hwid string) ([]domain.Library, error) {
	return get[[]domain.Library](ctx, c, "getClientLibraries", "/clients/"+seg(hwid)+"/libraries")
}

func (c *Client) ClientFonts(ctx context.Context, hwid string) ([]domain.Font, error) {
	return get[[]domain.Font](ctx, c, "getClientFonts", "/clients/"+seg(hwid)+"/fonts")
}

func (c *Client) ClientGroups(ctx context.Context, hwid string) ([]domain.Group, error) {
	return get[[]domain.Group](ctx, c, "getClientGroups", "/clients/"+seg(hwid)+"/groups")
}

func (c *Client) AssignLibraryToClient(ctx context.Context, hwid string, libraryID int) error {
	body := map[string]int{"libraryId": libraryID}
	return c.sendJSON(ctx, "assignLibraryToClient", "POST", "/clients/"+seg(hwid)+"/libraries", body, nil)
}

func (c *Client) UnassignLibraryFromClient(ctx context.Context, hwid string, libraryID int) error {
	return c.delete(ctx, "unassignLibraryFromClient", fmt.Sprintf("/clients/%s/libraries/%d", seg(hwid), libraryID))
}

func (c *Client) AssignFontToClient(ctx context.Context, hwid string, fontID int) error {
	body := map[string]int{"fontId": fontID}
	return c.sendJSON(ctx, "assignFontToClient", "POST", "/clients/"+seg(hwid)+"/fonts", body, nil)
}

func (c *Client) UnassignFontFromClient(ctx context.Context, hwid string, fontID int) error {
	return c.delete(ctx, "unassignFontFromClient", fmt.Sprintf("/clients/%s/fonts/%d", seg(hwid), fontID))
}

func (c *Client) AssignGroupToClient(ctx context.Context, hwid string, groupID int) error {
	body := map[string]int{"groupId": groupID}
	return c.sendJSON(ctx, "assignGroupToClient", "POST", "/clients/"+seg(hwid)+"/groups", body, nil)
}

func (c *Client) UnassignGroupFromClient(ctx context.Context, hwid string, groupID int) error {
	return c.delete(ctx, "unassignGroupFromClient", fmt.Sprintf("/clients/%s/groups/%d", seg(hwid), groupID))
}

// Fonts

func (c *Client) Fonts(ctx context.Context) ([]domain.Font, error) {
	return get[[]domain.Font](ctx, c, "getFonts", "/fonts")
}

func (c *Client) Font(ctx context.Context, id int) (domain.Font, error) {
	return get[domain.Font](ctx, c, "getFont", fmt.Sprintf("/fonts/%d", id))
}

// UploadFont sends the font file as multipart field "file". A duplicate by content
// hash comes back as a StatusError matching ErrConflict.
func (c *Client) UploadFont(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error) {
	var raw json.RawMessage
	if err := c.upload(ctx, "uploadFont", "/fonts", "file", filename, r, &raw); err != nil {
		return domain.UploadResult{}, err
	}
	return decodeUpload(raw)
}

// decodeUpload accepts either a Font or {filePath}.
func decodeUpload(raw json.RawMessage) (domain.UploadResult, error) {
	if len(raw) == 0 {
		return domain.UploadResult{}, nil
	}
	var head struct {
		ID       *int   `json:"id"`
		FilePath string `json:"filePath"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return domain.UploadResult{}, fmt.Errorf("uploadFont: decode response: %w", err)
	}
	if head.ID == nil {
		return domain.UploadResult{FilePath: head.FilePath}, nil
	}
	var f domain.Font
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.UploadResult{}, fmt.Errorf("uploadFont: decode font: %w", err)
	}
	return domain.UploadResult{Font: &f, FilePath: f.FilePath}, nil
}

// Libraries

// LibraryInput is the body of create/update library.
type LibraryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *Client) Libraries(ctx context.Context) ([]domain.Library, error) {
	return get[[]domain.Library](ctx, c, "getLibraries", "/libraries")
}

func (c *Client) Library(ctx context.Context, id int) (domain.Library, error) {
	return get[domain.Library](ctx, c, "getLibrary", fmt.Sprintf("/libraries/%d", id))
}

func (c *Client) CreateLibrary(ctx context.Context, in LibraryInput) (domain.Library, error) {
	return send[domain.Library](ctx, c, "createLibrary", "POST", "/libraries", in)
}

func (c *Client) UpdateLibrary(ctx context.Context, id int, in LibraryInput) (domain.Library, error) {
	return send[domain.Library](ctx, c, "updateLibrary", "PUT", fmt.Sprintf("/libraries/%d", id), in)
}

func (c *Client) LibraryFonts(ctx context.Context, id int) ([]domain.Font, error) {
	return get[[]domain.Font](ctx, c, "getLibraryFonts", fmt.Sprintf("/libraries/%d/fonts", id))
}

func (c *Client) AddFontToLibrary(ctx context.Context, libraryID, fontID int) error {
	body := map[string]int{"fontId": fontID}
	return c.sendJSON(ctx, "addFontToLibrary", "POST", fmt.Sprintf("/libraries/%d/fonts", libraryID), body, nil)
}

func (c *Client) RemoveFontFromLibrary(ctx context.Context, libraryID, fontID int) error {
	return c.delete(ctx, "removeFontFromLibrary", fmt.Sprintf("/libraries/%d/fonts/%d", libraryID, fontID))
}

// Groups

// GroupInput is the body of create group.
type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	return get[[]domain.Group](ctx, c, "getGroups", "/groups")
}

func (c *Client) Group(ctx context.Context, id int) (domain.Group, error) {
	return get[domain.Group](ctx, c, "getGroup", fmt.Sprintf("/groups/%d", id))
}

func (c *Client) CreateGroup(ctx context.Context, in GroupInput) (domain.Group, error) {
	return send[domain.Group](ctx, c, "createGroup", "POST", "/groups", in)
}

func (c *Client) AddClientToGroup(ctx context.Context, groupID int, hwid string) error {
	body := map[string]string{"clientId": hwid}
	return c.sendJSON(ctx, "addClientToGroup", "POST", fmt.Sprintf("/groups/%d/clients", groupID), body, nil)
}

func (c *Client) RemoveClientFromGroup(ctx context.Context, groupID int, hwid string) error {
	return c.delete(ctx, "removeClientFromGroup", fmt.Sprintf("/groups/%d/clients/%s", groupID, seg(hwid)))
}

func (c *Client) AddLibraryToGroup(ctx context.Context, groupID, libraryID int) error {
	body := map[string]int{"libraryId": libraryID}
	return c.sendJSON(ctx, "addLibraryToGroup", "POST", fmt.Sprintf("/groups/%d/libraries", groupID), body, nil)
}

func (c *Client) AddFontToGroup(ctx context.Context, groupID, fontID int) error {
	body := map[string]int{"fontId": fontID}
	return c.sendJSON(ctx, "addFontToGroup", "POST", fmt.Sprintf("/groups/%d/fonts", groupID), body, nil)
}

// Analytics

func (c *Client) ClientActivity(ctx context.Context) ([]domain.ClientActivity, error) {
	return get[[]domain.ClientActivity](ctx, c, "getClientActivity", "/analytics/client-activity")
}

func (c *Client) LibraryDistribution(ctx context.Context) ([]domain.LibraryDistribution, error) {
	return get[[]domain.LibraryDistribution](ctx, c, "getLibraryDistribution", "/analytics/library-distribution")
}

func get[T any](ctx context.Context, c *Client, op, path string) (T, error) {
	var out T
	err := c.getJSON(ctx, op, path, &out)
	return out, err
}

func send[T any](ctx context.Context, c *Client, op, method, path string, in any) (T, error) {
	var out T
	err := c.sendJSON(ctx, op, method, path, in, &out)
	return out, err
}
