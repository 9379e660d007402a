package tasks

import (
	"fmt"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// URLPair maps an image URL in WordPress content to its Contentful URL.
type URLPair struct {
	Source      string
	Destination string
}

// ReferenceMaps resolve WordPress ids and URLs to their Contentful counterparts. Read-only once built.
type ReferenceMaps struct {
	Inline  []URLPair      // in asset list order
	Media   map[int]string // featured media id → asset id
	Authors map[int]string // WordPress user id → author entry id
}

// NewReferenceMaps builds the maps from the uploaded asset list and the author matches.
//
// An asset record without a WordPress link or Contentful id is rejected with [shared.ErrInvalidReference].
// Authors without a Contentful match are skipped. A link listed twice keeps its first position and last destination.
func NewReferenceMaps(assets []models.AssetRecord, authors []models.AuthorMatch) (*ReferenceMaps, error) {
	refs := &ReferenceMaps{
		Inline:  make([]URLPair, 0, len(assets)),
		Media:   make(map[int]string),
		Authors: make(map[int]string),
	}

	positions := make(map[string]int, len(assets))
	for i, a := range assets {
		if a.WordPress.Link == "" {
			return nil, fmt.Errorf("%w: asset %d has no WordPress link", shared.ErrInvalidReference, i)
		}
		if a.Contentful.ID == "" {
			return nil, fmt.Errorf("%w: asset %s has no Contentful id", shared.ErrInvalidReference, a.WordPress.Link)
		}

		if pos, ok := positions[a.WordPress.Link]; ok {
			refs.Inline[pos].Destination = a.Contentful.URL
		} else {
			positions[a.WordPress.Link] = len(refs.Inline)
			refs.Inline = append(refs.Inline, URLPair{Source: a.WordPress.Link, Destination: a.Contentful.URL})
		}

		if a.WordPress.MediaNumber != 0 {
			refs.Media[a.WordPress.MediaNumber] = a.Contentful.ID
		}
	}

	for _, a := range authors {
		if a.Contentful == nil || a.Contentful.ID == "" {
			continue
		}
		refs.Authors[a.WordPress.ID] = a.Contentful.ID
	}

	return refs, nil
}
