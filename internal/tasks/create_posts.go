package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// CreatePosts uploads every transformed post as a published Contentful entry.
//
// Reference maps are built from assets/list/done.json and users/transformed/authors.json, so
// [MigrationEngine.UploadAssets] and [MigrationEngine.MatchAuthors] must have run first.
// A malformed reference file aborts before any post is dispatched. The done/failed result is
// written to posts/created/posts.json and the entry id of each created post to posts/created/entries.json.
func (e *MigrationEngine) CreatePosts(ctx context.Context, progress chan<- ProgressUpdate) (*UploadResult[models.Post], error) {
	if err := e.requireDest(); err != nil {
		return nil, err
	}

	posts, err := e.loadPosts()
	if err != nil {
		return nil, err
	}

	var assets []models.AssetRecord
	if err := shared.ReadJSON(e.opts.Paths.AssetsDoneFile(), &assets); err != nil {
		return nil, missingStage(err, "uploaded asset list", "contentful assets")
	}

	var authors []models.AuthorMatch
	if err := shared.ReadJSON(e.opts.Paths.AuthorsFile(), &authors); err != nil {
		return nil, missingStage(err, "author matches", "contentful authors")
	}

	refs, err := NewReferenceMaps(assets, authors)
	if err != nil {
		return nil, err
	}

	writer := NewPostWriter(e.dest, refs, PostWriterOpts{
		ContentType: e.opts.PostContentType,
		Delay:       e.opts.Delay,
		Transform:   TransformOpts{Locale: e.opts.Locale, FallbackAuthorID: e.opts.FallbackAuthorID},
	})

	up, err := NewUploader(e.uploaderOpts(PhaseUploadPosts, "posts"), PostSlug, writer.Write)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := up.Run(ctx, posts, progress)
	if err != nil {
		return nil, err
	}

	if err := shared.WriteJSON(e.opts.Paths.PostResultsFile(), res); err != nil {
		return res, err
	}
	if err := shared.WriteJSON(e.opts.Paths.PostEntriesFile(), writer.EntryIDs()); err != nil {
		return res, err
	}

	recordRun(e, models.RunKindPosts, started, up.Concurrency(), res, PostSlug)
	return res, nil
}

func missingStage(err error, what, command string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s not found, run `wpx %s` first: %w", shared.ErrMissingArgument, what, command, err)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
