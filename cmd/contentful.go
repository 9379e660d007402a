package main

import (
	"context"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/desertthunder/wpx/internal/ui"
	"github.com/urfave/cli/v3"
)

// ContentfulAssets uploads, processes and publishes every listed image.
func (r *Runner) ContentfulAssets(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "Upload assets", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		res, err := r.engine.UploadAssets(ctx, progress)
		if err != nil {
			return nil, err
		}
		summary := ui.UploadSummary("Assets uploaded", res, tasks.ImageLink)
		summary.Notes = []string{"Uploaded assets written to " + paths.AssetsDoneFile()}
		return summary, nil
	})
	return err
}

// ContentfulAuthors matches WordPress users to Contentful author entries by name.
func (r *Runner) ContentfulAuthors(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "Match authors", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		matches, err := r.engine.MatchAuthors(ctx, progress)
		if err != nil {
			return nil, err
		}
		summary := authorSummary(matches)
		summary.Notes = []string{"Matches written to " + paths.AuthorsFile()}
		return summary, nil
	})
	return err
}

// authorSummary counts matched users as done; unmatched users fall back to the default author.
func authorSummary(matches []models.AuthorMatch) *ui.Result {
	res := &ui.Result{Title: "Authors matched"}
	for _, m := range matches {
		if m.Contentful != nil {
			res.Done++
			continue
		}
		res.Failed = append(res.Failed, ui.Failure{
			Identifier: m.WordPress.Name,
			Error:      "no Contentful author with this name; posts use the fallback author",
		})
	}
	return res
}

// ContentfulPosts creates and publishes one entry per transformed post.
func (r *Runner) ContentfulPosts(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "Create posts", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		res, err := r.engine.CreatePosts(ctx, progress)
		if err != nil {
			return nil, err
		}
		summary := ui.UploadSummary("Posts created", res, tasks.PostSlug)
		summary.Notes = []string{"Results written to " + paths.PostResultsFile()}
		return summary, nil
	})
	return err
}

// contentfulCommand handles the Contentful upload stages
func contentfulCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "contentful",
		Aliases: []string{"cf"},
		Usage:   "Upload prepared content to Contentful",
		Commands: []*cli.Command{
			{
				Name:   "assets",
				Usage:  "Upload and publish images as assets",
				Action: r.ContentfulAssets,
			},
			{
				Name:   "authors",
				Usage:  "Match WordPress users to Contentful authors",
				Action: r.ContentfulAuthors,
			},
			{
				Name:   "posts",
				Usage:  "Create and publish blog post entries",
				Action: r.ContentfulPosts,
			},
		},
	}
}
