package models

// Post is a WordPress post transformed for Contentful. Its slug identifies it for the whole migration.
type Post struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Author        int     `json:"author"`
	Description   string  `json:"description"`
	Tags          []int   `json:"tags"`
	Slug          string  `json:"slug"`
	Body          string  `json:"body"`
	Date          string  `json:"date"`
	Category      int     `json:"category"`
	FeaturedMedia int     `json:"featuredMedia"`
	Link          string  `json:"link"`
	BodyImages    []Image `json:"bodyImages"`
}

// Image is an image referenced by a post, either as featured media or inline in the body.
type Image struct {
	MediaNumber int    `json:"mediaNumber,omitempty"`
	Link        string `json:"link"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PostID      int    `json:"postId"`
}

// UploadedAsset identifies an image after it was uploaded to Contentful.
type UploadedAsset struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// AssetRecord pairs a WordPress image with its Contentful asset.
type AssetRecord struct {
	WordPress  Image         `json:"wordpress"`
	Contentful UploadedAsset `json:"contentful"`
}

// Person is a minimal id/name pair for either side of an author match.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WPPerson is the WordPress side of an author match.
type WPPerson struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AuthorMatch pairs a WordPress user with the Contentful author of the same name, if any.
type AuthorMatch struct {
	WordPress  WPPerson `json:"wordpress"`
	Contentful *Person  `json:"contentful"`
}

// Redirect maps an old WordPress permalink to the new blog path.
type Redirect struct {
	Link string `json:"link"`
	Slug string `json:"slug"`
}
