package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/wpx/internal/formatter"
	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// TransformWPPost converts a downloaded WordPress post into a [models.Post].
//
// The body becomes markdown, the excerpt plain text, and the GMT date an explicit +00:00 timestamp.
// Images are extracted from the original HTML so their URLs match what WordPress serves.
func TransformWPPost(wp models.WPPost) (models.Post, error) {
	body, err := formatter.ToMarkdown(wp.Content.Rendered)
	if err != nil {
		return models.Post{}, fmt.Errorf("post %d (%s): %w", wp.ID, wp.Slug, err)
	}

	var category int
	if len(wp.Categories) > 0 {
		category = wp.Categories[0]
	}

	tags := wp.Tags
	if tags == nil {
		tags = []int{}
	}

	return models.Post{
		ID:            wp.ID,
		Title:         wp.Title.Rendered,
		Author:        wp.Author,
		Description:   formatter.ToPlainText(wp.Excerpt.Rendered),
		Tags:          tags,
		Slug:          wp.Slug,
		Body:          body,
		Date:          wp.DateGMT + "+00:00",
		Category:      category,
		FeaturedMedia: wp.FeaturedMedia,
		Link:          wp.Link,
		BodyImages:    formatter.ExtractImages(wp.Content.Rendered, wp.ID),
	}, nil
}

// TransformPosts converts every downloaded post page into posts/transformed/<slug>.json
// and writes the redirect file. Pages are read in sorted file order. Returns the number of posts written.
func (e *MigrationEngine) TransformPosts(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	src := e.opts.Paths.PostOriginals()
	dst := e.opts.Paths.PostTransformed()

	files, err := shared.JSONFiles(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	var pages [][]models.WPPost
	total := 0
	for _, name := range files {
		var page []models.WPPost
		if err := shared.ReadJSON(filepath.Join(src, name), &page); err != nil {
			return 0, err
		}
		pages = append(pages, page)
		total += len(page)
	}
	e.logger.Info("transforming posts", "pages", len(files), "posts", total)

	redirects := make([]models.Redirect, 0, total)
	count := 0
	for _, page := range pages {
		for _, wp := range page {
			if err := ctx.Err(); err != nil {
				return count, err
			}
			if wp.Slug == "" {
				e.logger.Warn("skipping post without slug", "id", wp.ID)
				continue
			}

			post, err := TransformWPPost(wp)
			if err != nil {
				return count, err
			}
			if err := shared.WriteJSON(filepath.Join(dst, post.Slug+".json"), post); err != nil {
				return count, err
			}

			redirects = append(redirects, models.Redirect{Link: post.Link, Slug: post.Slug})
			count++
			sendProgress(progress, transformUpdate(count, total, post.Slug))
		}
	}

	if err := formatter.WriteRedirects(e.opts.Paths.RedirectsFile(), redirects, e.opts.RedirectBaseURL); err != nil {
		return count, err
	}

	e.logger.Info("transform complete", "posts", count, "redirects", len(redirects))
	return count, nil
}

// loadPosts reads every transformed post in sorted file order.
func (e *MigrationEngine) loadPosts() ([]models.Post, error) {
	dir := e.opts.Paths.PostTransformed()
	files, err := shared.JSONFiles(dir)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(files))
	for _, name := range files {
		var post models.Post
		if err := shared.ReadJSON(filepath.Join(dir, name), &post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
