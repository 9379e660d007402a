package main

import (
	"context"

	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/desertthunder/wpx/internal/ui"
	"github.com/urfave/cli/v3"
)

// WordPressUsers downloads every page of users to users/originals.
func (r *Runner) WordPressUsers(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "Download users", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		pages, err := r.engine.DownloadUsers(ctx, progress)
		if err != nil {
			return nil, err
		}
		return &ui.Result{Title: "Users downloaded", Done: pages, Notes: []string{"Pages written to " + paths.UserOriginals()}}, nil
	})
	return err
}

// WordPressPosts downloads every page of posts to posts/originals.
func (r *Runner) WordPressPosts(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "Download posts", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		pages, err := r.engine.DownloadPosts(ctx, progress)
		if err != nil {
			return nil, err
		}
		return &ui.Result{Title: "Posts downloaded", Done: pages, Notes: []string{"Pages written to " + paths.PostOriginals()}}, nil
	})
	return err
}

// WordPressTransform converts the downloaded posts and writes the redirect list.
func (r *Runner) WordPressTransform(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "Transform posts", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		n, err := r.engine.TransformPosts(ctx, progress)
		if err != nil {
			return nil, err
		}
		return &ui.Result{
			Title: "Posts transformed",
			Done:  n,
			Notes: []string{"Posts written to " + paths.PostTransformed(), "Redirects written to " + paths.RedirectsFile()},
		}, nil
	})
	return err
}

// WordPressAssets resolves featured media and inline images into the asset list.
func (r *Runner) WordPressAssets(ctx context.Context, cmd *cli.Command) error {
	paths := r.engine.Paths()
	_, err := r.runStage(ctx, cmd, "List assets", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*ui.Result, error) {
		images, err := r.engine.BuildAssetList(ctx, progress)
		if err != nil {
			return nil, err
		}
		return &ui.Result{Title: "Assets listed", Done: len(images), Notes: []string{"Asset list written to " + paths.AssetsFile()}}, nil
	})
	return err
}

// wordpressCommand handles the WordPress download and transform stages
func wordpressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wordpress",
		Aliases: []string{"wp"},
		Usage:   "Download and prepare WordPress content",
		Commands: []*cli.Command{
			{
				Name:   "users",
				Usage:  "Download all users",
				Action: r.WordPressUsers,
			},
			{
				Name:   "posts",
				Usage:  "Download all posts",
				Action: r.WordPressPosts,
			},
			{
				Name:   "transform",
				Usage:  "Convert downloaded posts to Markdown and write redirects",
				Action: r.WordPressTransform,
			},
			{
				Name:   "assets",
				Usage:  "Build the list of images to upload",
				Action: r.WordPressAssets,
			},
		},
	}
}
