// WordPress REST API response types
//
// Based on https://developer.wordpress.org/rest-api/reference/
package models

// Rendered wraps the HTML-rendered value WordPress returns for titles, excerpts and content.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// WPPost represents a post from /wp/v2/posts.
type WPPost struct {
	ID            int      `json:"id"`
	Date          string   `json:"date"`
	DateGMT       string   `json:"date_gmt"`
	Modified      string   `json:"modified"`
	ModifiedGMT   string   `json:"modified_gmt"`
	Slug          string   `json:"slug"`
	Status        string   `json:"status"`
	Type          string   `json:"type"`
	Link          string   `json:"link"`
	Title         Rendered `json:"title"`
	Content       Rendered `json:"content"`
	Excerpt       Rendered `json:"excerpt"`
	Author        int      `json:"author"`
	FeaturedMedia int      `json:"featured_media"`
	CommentStatus string   `json:"comment_status"`
	PingStatus    string   `json:"ping_status"`
	Sticky        bool     `json:"sticky"`
	Template      string   `json:"template"`
	Format        string   `json:"format"`
	Categories    []int    `json:"categories"`
	Tags          []int    `json:"tags"`
}

// WPUser represents a user from /wp/v2/users.
type WPUser struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Slug        string `json:"slug"`
}

// WPMedia represents an attachment from /wp/v2/media/{id}.
type WPMedia struct {
	ID        int      `json:"id"`
	GUID      Rendered `json:"guid"`
	Title     Rendered `json:"title"`
	AltText   string   `json:"alt_text"`
	MimeType  string   `json:"mime_type"`
	SourceURL string   `json:"source_url"`
}
