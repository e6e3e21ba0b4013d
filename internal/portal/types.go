package portal

import "time"

// Credentials are the portal login details
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CatalogEntry is one purchased title as listed on the catalog page
type CatalogEntry struct {
	URL        string `json:"url"`
	Code       string `json:"code"`
	ID         string `json:"id"`
	Visibility string `json:"visibility"`
	CoverURL   string `json:"cover_url"`
	Title      string `json:"title"`
	Publisher  string `json:"publisher"`
	ExpiryDate string `json:"expiry_date"`
}

// PageSize is a page's pixel dimensions, serialised as [width,height]
type PageSize [2]uint16

// Width returns the page width
func (p PageSize) Width() uint16 { return p[0] }

// Height returns the page height
func (p PageSize) Height() uint16 { return p[1] }

// MissingFirstPage is substituted when the reader HTML has no firstPage meta tag
const MissingFirstPage = "___missing_first_page"

// BookMetadata is parsed from the reader's initial HTML
type BookMetadata struct {
	Title            string     `json:"title"`
	SerialNumber     string     `json:"sb_number"`
	FirstPage        string     `json:"first_page"`
	Publisher        string     `json:"publisher"`
	PublisherWeb     string     `json:"publisher_web"`
	PublisherAddress string     `json:"publisher_address"`
	PublisherTel     string     `json:"publisher_tel"`
	PublisherMail    string     `json:"publisher_mail"`
	PageSizes        []PageSize `json:"page_sizes"`
}

// PageCount returns the number of retrievable pages
func (m *BookMetadata) PageCount() int {
	return len(m.PageSizes)
}

// ReaderVersion identifies which reader variant serves a book
type ReaderVersion int

const (
	VersionLegacy ReaderVersion = iota
	VersionModern
)

func (v ReaderVersion) String() string {
	if v == VersionModern {
		return "modern"
	}
	return "legacy"
}

// AssetKind is the kind of raster image referenced from a page
type AssetKind string

const (
	AssetPrimary AssetKind = "img"
	AssetShade   AssetKind = "shade"
)

// PageAsset is a raster image referenced from a downloaded page
type PageAsset struct {
	URL         string    `json:"url"`
	PageNumber  int       `json:"page_number"`
	AssetNumber uint64    `json:"asset_number"`
	Kind        AssetKind `json:"kind"`
}

// DownloadManifest ties a run's output back to its catalog entry
type DownloadManifest struct {
	Timestamp    string        `json:"timestamp"`
	Version      string        `json:"version,omitempty"`
	BookMetadata *BookMetadata `json:"book_meta"`
	CatalogEntry CatalogEntry  `json:"book"`
}

// TimestampFormat is used for run directories and snapshot names
const TimestampFormat = "2006-01-02_15-04-05"

// Timestamp formats t the way output directories are named
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
