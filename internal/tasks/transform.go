package tasks

import (
	"strings"

	"github.com/desertthunder/wpx/internal/models"
)

// TransformOpts holds the destination content model settings used when building entry fields.
type TransformOpts struct {
	Locale           string
	FallbackAuthorID string
}

// TransformPost maps a post to the fields of a Contentful post entry. It performs no I/O.
//
// The featured image links to the asset for post.FeaturedMedia, or to an empty id when it was not uploaded.
// The author links to the matched author entry, or to opts.FallbackAuthorID.
func TransformPost(post models.Post, refs *ReferenceMaps, opts TransformOpts) models.EntryFields {
	if refs == nil {
		refs = &ReferenceMaps{}
	}

	authorID, ok := refs.Authors[post.Author]
	if !ok {
		authorID = opts.FallbackAuthorID
	}

	loc := func(v any) models.Localized {
		return models.Localized{opts.Locale: v}
	}

	return models.EntryFields{
		"title":         loc(post.Title),
		"body":          loc(ReplaceInlineImageURLs(post.Body, refs.Inline)),
		"description":   loc(post.Description),
		"slug":          loc(post.Slug),
		"publishedDate": loc(post.Date),
		"featureImage":  loc(models.NewAssetLink(refs.Media[post.FeaturedMedia])),
		"author":        loc(models.NewEntryLink(authorID)),
	}
}

// ReplaceInlineImageURLs applies each pair in order, replacing only the first occurrence of its source URL.
//
// A URL that appears twice in the body keeps its second occurrence unchanged.
//
// TODO: decide whether repeated inline images should all be rewritten (strings.ReplaceAll) once
// migrated posts with duplicate images have been checked against the WordPress originals.
func ReplaceInlineImageURLs(body string, pairs []URLPair) string {
	for _, p := range pairs {
		body = strings.Replace(body, p.Source, p.Destination, 1)
	}
	return body
}
