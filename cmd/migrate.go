package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/desertthunder/wpx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Migrate runs every stage against a clean output directory.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	r.logger.Info("starting migration", "api_url", r.config.WordPress.APIURL, "space", r.config.Contentful.SpaceID)
	_, err := r.runStage(ctx, cmd, "Migrate WordPress to Contentful", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		summary, err := r.engine.Migrate(ctx, progress)
		if err != nil {
			return nil, err
		}
		return migrationResult(summary), nil
	})
	return err
}

// migrationResult reports created posts as done; asset and post failures are both listed.
func migrationResult(s *tasks.MigrationSummary) *ui.Result {
	assets := ui.UploadSummary("Assets", s.Assets, tasks.ImageLink)
	posts := ui.UploadSummary("Migration complete", s.Created, tasks.PostSlug)

	failed := make([]ui.Failure, 0, len(assets.Failed)+len(posts.Failed))
	failed = append(failed, assets.Failed...)
	failed = append(failed, posts.Failed...)

	matched := 0
	for _, m := range s.Authors {
		if m.Contentful != nil {
			matched++
		}
	}

	return &ui.Result{
		Title:  posts.Title,
		Done:   posts.Done,
		Failed: failed,
		Notes: []string{
			fmt.Sprintf("Pages downloaded: %d users, %d posts", s.UserPages, s.PostPages),
			fmt.Sprintf("Posts transformed: %d", s.Posts),
			fmt.Sprintf("Images listed: %d, uploaded: %d", s.Images, assets.Done),
			fmt.Sprintf("Authors matched: %d/%d", matched, len(s.Authors)),
			fmt.Sprintf("Posts created: %d", posts.Done),
		},
	}
}

// migrateCommand runs the full pipeline
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Run every stage from a clean output directory",
		Action: r.Migrate,
	}
}
