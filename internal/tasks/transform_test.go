package tasks

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

func linkID(t *testing.T, fields models.EntryFields, key string) string {
	t.Helper()
	link, ok := fields[key]["en-US"].(models.Link)
	if !ok {
		t.Fatalf("expected %s to be a link, got %T", key, fields[key]["en-US"])
	}
	return link.Sys.ID
}

func TestTransformPost(t *testing.T) {
	refs := &ReferenceMaps{
		Inline:  []URLPair{{Source: "https://wp.example.com/a.jpg", Destination: "https://images.ctfassets.net/a.jpg"}},
		Media:   map[int]string{11: "asset-11"},
		Authors: map[int]string{7: "author-7"},
	}
	opts := TransformOpts{Locale: "en-US", FallbackAuthorID: "fallback"}

	t.Run("copies fields", func(t *testing.T) {
		post := testPost("hello-world")
		fields := TransformPost(post, refs, opts)

		for key, want := range map[string]string{
			"title":         post.Title,
			"description":   post.Description,
			"slug":          post.Slug,
			"publishedDate": post.Date,
		} {
			if got := fields[key]["en-US"]; got != want {
				t.Errorf("%s = %v, want %q", key, got, want)
			}
		}

		if id := linkID(t, fields, "featureImage"); id != "asset-11" {
			t.Errorf("expected asset-11, got %q", id)
		}
		if link := fields["featureImage"]["en-US"].(models.Link); link.Sys.LinkType != "Asset" {
			t.Errorf("expected Asset link, got %s", link.Sys.LinkType)
		}
		if id := linkID(t, fields, "author"); id != "author-7" {
			t.Errorf("expected author-7, got %q", id)
		}
	})

	t.Run("author fallback", func(t *testing.T) {
		post := testPost("orphan")
		post.Author = 99

		if id := linkID(t, TransformPost(post, refs, opts), "author"); id != "fallback" {
			t.Errorf("expected fallback author, got %q", id)
		}
	})

	t.Run("unresolved media", func(t *testing.T) {
		post := testPost("no-media")
		post.FeaturedMedia = 404

		fields := TransformPost(post, refs, opts)
		if id := linkID(t, fields, "featureImage"); id != "" {
			t.Errorf("expected empty asset id for unresolved media, got %q", id)
		}

		data, err := json.Marshal(fields["featureImage"])
		if err != nil {
			t.Fatalf("failed to marshal link: %v", err)
		}
		if got, want := string(data), `{"en-US":{"sys":{"type":"Link","linkType":"Asset"}}}`; got != want {
			t.Errorf("featureImage = %s, want %s", got, want)
		}
	})

	t.Run("nil references", func(t *testing.T) {
		fields := TransformPost(testPost("bare"), nil, opts)
		if id := linkID(t, fields, "author"); id != "fallback" {
			t.Errorf("expected fallback author, got %q", id)
		}
		if fields["body"]["en-US"] != "Body text" {
			t.Errorf("expected body untouched, got %v", fields["body"]["en-US"])
		}
	})

	t.Run("locale", func(t *testing.T) {
		fields := TransformPost(testPost("localized"), refs, TransformOpts{Locale: "de-DE"})
		if _, ok := fields["title"]["de-DE"]; !ok {
			t.Errorf("expected fields keyed by de-DE, got %v", fields["title"])
		}
	})
}

func TestReplaceInlineImageURLs(t *testing.T) {
	src := "https://wp.example.com/a.jpg"
	dst := "https://images.ctfassets.net/a.jpg"
	pairs := []URLPair{{Source: src, Destination: dst}}

	t.Run("single occurrence", func(t *testing.T) {
		got := ReplaceInlineImageURLs("![a]("+src+")", pairs)
		if !strings.Contains(got, dst) || strings.Contains(got, src) {
			t.Errorf("expected %s replaced, got %q", src, got)
		}
	})

	// Only the first occurrence per pair is replaced; repeated URLs keep their later copies.
	t.Run("repeated URL replaces first only", func(t *testing.T) {
		body := "![a](" + src + ") and again ![a](" + src + ")"
		got := ReplaceInlineImageURLs(body, pairs)

		want := "![a](" + dst + ") and again ![a](" + src + ")"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("ordered pairs", func(t *testing.T) {
		ordered := []URLPair{
			{Source: "https://wp.example.com/a.jpg", Destination: "https://cdn/b.jpg"},
			{Source: "https://cdn/b.jpg", Destination: "https://cdn/c.jpg"},
		}
		got := ReplaceInlineImageURLs("https://wp.example.com/a.jpg", ordered)
		if got != "https://cdn/c.jpg" {
			t.Errorf("expected pairs applied in order, got %q", got)
		}
	})
}

func TestNewReferenceMaps(t *testing.T) {
	t.Run("builds maps", func(t *testing.T) {
		assets := []models.AssetRecord{
			{WordPress: models.Image{Link: "https://wp/a.jpg", MediaNumber: 5}, Contentful: models.UploadedAsset{ID: "asset-a", URL: "https://cdn/a.jpg"}},
			{WordPress: models.Image{Link: "https://wp/b.jpg"}, Contentful: models.UploadedAsset{ID: "asset-b", URL: "https://cdn/b.jpg"}},
			{WordPress: models.Image{Link: "https://wp/a.jpg"}, Contentful: models.UploadedAsset{ID: "asset-a2", URL: "https://cdn/a2.jpg"}},
		}
		authors := []models.AuthorMatch{
			{WordPress: models.WPPerson{ID: 1, Name: "Jane"}, Contentful: &models.Person{ID: "author-jane", Name: "Jane"}},
			{WordPress: models.WPPerson{ID: 2, Name: "Nobody"}},
			{WordPress: models.WPPerson{ID: 3, Name: "Blank"}, Contentful: &models.Person{}},
		}

		refs, err := NewReferenceMaps(assets, authors)
		if err != nil {
			t.Fatalf("NewReferenceMaps failed: %v", err)
		}

		if len(refs.Inline) != 2 {
			t.Fatalf("expected 2 inline pairs, got %d", len(refs.Inline))
		}
		if refs.Inline[0].Source != "https://wp/a.jpg" || refs.Inline[0].Destination != "https://cdn/a2.jpg" {
			t.Errorf("expected first position with last destination, got %+v", refs.Inline[0])
		}
		if refs.Media[5] != "asset-a" {
			t.Errorf("expected media 5 → asset-a, got %q", refs.Media[5])
		}
		if len(refs.Authors) != 1 || refs.Authors[1] != "author-jane" {
			t.Errorf("expected only matched authors, got %v", refs.Authors)
		}
	})

	t.Run("malformed records", func(t *testing.T) {
		tests := []struct {
			name  string
			asset models.AssetRecord
		}{
			{"missing link", models.AssetRecord{Contentful: models.UploadedAsset{ID: "x"}}},
			{"missing id", models.AssetRecord{WordPress: models.Image{Link: "https://wp/a.jpg"}}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewReferenceMaps([]models.AssetRecord{tt.asset}, nil)
				if !errors.Is(err, shared.ErrInvalidReference) {
					t.Errorf("expected ErrInvalidReference, got %v", err)
				}
			})
		}
	})
}
