// Contentful Content Management API types
//
// Based on https://www.contentful.com/developers/docs/references/content-management-api/
package models

// Localized holds one field value per locale code.
type Localized map[string]any

// EntryFields is the fields object of an entry or asset, keyed by field id.
type EntryFields map[string]Localized

// Sys is the system metadata block on every Contentful resource.
type Sys struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Version          int    `json:"version,omitempty"`
	PublishedVersion int    `json:"publishedVersion,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
	PublishedAt      string `json:"publishedAt,omitempty"`
}

// LinkSys is the sys block of a link to another resource. An unresolved link omits its id.
type LinkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id,omitempty"`
}

// Link references another entry or asset.
type Link struct {
	Sys LinkSys `json:"sys"`
}

// NewEntryLink returns a link to the entry with the given id.
func NewEntryLink(id string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: "Entry", ID: id}}
}

// NewAssetLink returns a link to the asset with the given id.
func NewAssetLink(id string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: "Asset", ID: id}}
}

// Entry is a Contentful entry.
type Entry struct {
	Sys    Sys         `json:"sys"`
	Fields EntryFields `json:"fields"`
}

// EntryCollection is the paginated response of the entries endpoint.
type EntryCollection struct {
	Total int     `json:"total"`
	Skip  int     `json:"skip"`
	Limit int     `json:"limit"`
	Items []Entry `json:"items"`
}

// AssetFile describes the binary behind an asset. Upload is set before processing, URL after.
type AssetFile struct {
	ContentType string `json:"contentType,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	Upload      string `json:"upload,omitempty"`
	URL         string `json:"url,omitempty"`
}

// AssetFields are the localized fields of an asset.
type AssetFields struct {
	Title       map[string]string    `json:"title,omitempty"`
	Description map[string]string    `json:"description,omitempty"`
	File        map[string]AssetFile `json:"file,omitempty"`
}

// Asset is a Contentful asset.
type Asset struct {
	Sys    Sys         `json:"sys"`
	Fields AssetFields `json:"fields"`
}

// FileURL returns the processed file URL for locale, or "" while processing is pending.
func (a *Asset) FileURL(locale string) string {
	if a == nil || a.Fields.File == nil {
		return ""
	}
	return a.Fields.File[locale].URL
}
