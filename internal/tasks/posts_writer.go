package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// EntryClient is the part of the Contentful API used to create post entries.
type EntryClient interface {
	FindEntries(ctx context.Context, contentType, slug string) (*models.EntryCollection, error)
	CreateEntry(ctx context.Context, contentType string, fields models.EntryFields) (*models.Entry, error)
	PublishEntry(ctx context.Context, entry *models.Entry) (*models.Entry, error)
}

// AlreadyExistsError is returned when an entry with the post's slug is already in Contentful.
type AlreadyExistsError struct {
	Slug  string
	Total int
	Items []models.Entry
}

func (e *AlreadyExistsError) Error() string {
	ids := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		ids = append(ids, it.Sys.ID)
	}
	return fmt.Sprintf("post already exists: %s (%d matching entries %v)", e.Slug, e.Total, ids)
}

func (e *AlreadyExistsError) Unwrap() error {
	return shared.ErrAlreadyExists
}

// PostWriterOpts configures a [PostWriter].
type PostWriterOpts struct {
	ContentType string        // post content type id (default: "post")
	Delay       time.Duration // pause before each remote call
	Transform   TransformOpts
}

// PostWriter creates and publishes one post entry per call to [PostWriter.Write].
//
// Each write checks for an existing entry with the same slug first and never creates a duplicate.
type PostWriter struct {
	client EntryClient
	refs   *ReferenceMaps
	opts   PostWriterOpts

	mu        sync.Mutex
	published map[string]*models.Entry
}

// NewPostWriter returns a [PostWriter] resolving references through refs.
func NewPostWriter(client EntryClient, refs *ReferenceMaps, opts PostWriterOpts) *PostWriter {
	if opts.ContentType == "" {
		opts.ContentType = "post"
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &PostWriter{client: client, refs: refs, opts: opts, published: make(map[string]*models.Entry)}
}

// Write is a [WriteFunc] for posts: look up the slug, create the entry, publish it.
func (w *PostWriter) Write(ctx context.Context, post models.Post) error {
	if err := sleep(ctx, w.opts.Delay); err != nil {
		return err
	}

	existing, err := w.client.FindEntries(ctx, w.opts.ContentType, post.Slug)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", post.Slug, err)
	}
	if existing != nil && existing.Total > 0 {
		return &AlreadyExistsError{Slug: post.Slug, Total: existing.Total, Items: existing.Items}
	}

	fields := TransformPost(post, w.refs, w.opts.Transform)

	if err := sleep(ctx, w.opts.Delay); err != nil {
		return err
	}

	created, err := w.client.CreateEntry(ctx, w.opts.ContentType, fields)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", shared.ErrRemoteWrite, post.Slug, err)
	}

	if err := sleep(ctx, w.opts.Delay); err != nil {
		return err
	}

	published, err := w.client.PublishEntry(ctx, created)
	if err != nil {
		return fmt.Errorf("%w: publish %s (entry %s): %w", shared.ErrRemoteWrite, post.Slug, created.Sys.ID, err)
	}

	w.mu.Lock()
	w.published[post.Slug] = published
	w.mu.Unlock()
	return nil
}

// EntryIDs maps the slug of each post written so far to its published entry id.
func (w *PostWriter) EntryIDs() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make(map[string]string, len(w.published))
	for slug, e := range w.published {
		ids[slug] = e.Sys.ID
	}
	return ids
}

// PostSlug identifies a post for the uploader.
func PostSlug(p models.Post) string {
	return p.Slug
}
