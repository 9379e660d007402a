package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/wpx/internal/services"
	"github.com/desertthunder/wpx/internal/shared"
)

// DownloadUsers saves every page of /users to users/originals/users-N.json and returns the page count.
//
// Pagination ends at the first empty page or when WordPress answers 400.
func (e *MigrationEngine) DownloadUsers(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	return e.download(ctx, progress, PhaseFetchUsers, services.ResourceUsers, e.opts.Paths.UserOriginals(), true)
}

// DownloadPosts saves every page of /posts to posts/originals/posts-N.json and returns the page count.
//
// Pagination ends when WordPress answers 400.
func (e *MigrationEngine) DownloadPosts(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	return e.download(ctx, progress, PhaseFetchPosts, services.ResourcePosts, e.opts.Paths.PostOriginals(), false)
}

func (e *MigrationEngine) download(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	phase Phase,
	resource, dir string,
	stopOnEmpty bool,
) (int, error) {
	if err := e.requireSource(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	pages := 0
	for n := 1; ; n++ {
		sendProgress(progress, fetchPageUpdate(phase, resource, n))

		items, err := e.source.Page(ctx, resource, n)
		if errors.Is(err, shared.ErrEndOfPages) {
			break
		}
		if err != nil {
			return pages, fmt.Errorf("failed to download %s page %d: %w", resource, n, err)
		}
		if stopOnEmpty && len(items) == 0 {
			break
		}

		dest := filepath.Join(dir, fmt.Sprintf("%s-%d.json", resource, n))
		if err := shared.WriteJSON(dest, items); err != nil {
			return pages, err
		}
		pages++
	}

	e.logger.Info("download complete", "resource", resource, "pages", pages)
	return pages, nil
}
