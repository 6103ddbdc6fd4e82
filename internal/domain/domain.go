// Package domain holds the read-through copies of the resources owned by the
// font-distribution API.
package domain

// Kind names a resource kind.
type Kind string

const (
	KindFont    Kind = "font"
	KindLibrary Kind = "library"
	KindGroup   Kind = "group"
	KindClient  Kind = "client"
)

// Font is an uploaded font file. FileHash is its identity for deduplication.
type Font struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Style     string `json:"style"`
	FileHash  string `json:"file_hash"`
	FileType  string `json:"file_type"`
	FilePath  string `json:"file_path"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Library is a named collection of fonts.
type Library struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Group bundles clients, libraries and fonts.
type Group struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Client is a machine, keyed by HWID in relation endpoints.
type Client struct {
	ID       int    `json:"id"`
	HWID     string `json:"hwid"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	LastSeen string `json:"lastSeen"`
}

// ClientActivity is one point of the active-clients series.
type ClientActivity struct {
	Date          string `json:"date"`
	ActiveClients int    `json:"activeClients"`
}

// LibraryDistribution is the font count of one library.
type LibraryDistribution struct {
	LibraryID int `json:"libraryId"`
	FontCount int `json:"fontCount"`
}

// UploadResult is what POST /fonts returns: either a full Font or just the stored path.
type UploadResult struct {
	Font     *Font  `json:"font,omitempty"`
	FilePath string `json:"filePath,omitempty"`
}

// Identified is implemented by every kind; Key is the numeric id used in relation bodies.
type Identified interface{ Key() int }

// Named is matched by the free-text filter.
type Named interface{ Label() string }

// Described is matched by the filter in addition to Named when present.
type Described interface{ Details() string }

func (f Font) Key() int      { return f.ID }
func (f Font) Label() string { return f.Name }

func (l Library) Key() int        { return l.ID }
func (l Library) Label() string   { return l.Name }
func (l Library) Details() string { return l.Description }

func (g Group) Key() int        { return g.ID }
func (g Group) Label() string   { return g.Name }
func (g Group) Details() string { return g.Description }

func (c Client) Key() int      { return c.ID }
func (c Client) Label() string { return c.Name }
