package tasks

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// Asset processing poll defaults
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxPolls     = 10
)

// BuildAssetList collects the images of every transformed post into assets/list/assets.json.
//
// For each post the featured image comes first, looked up through the media endpoint, followed by the body images.
// A featured image the media endpoint does not return, or returns without a source URL, is skipped.
func (e *MigrationEngine) BuildAssetList(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Image, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}

	posts, err := e.loadPosts()
	if err != nil {
		return nil, err
	}

	list := []models.Image{}
	for i, post := range posts {
		images, err := e.imagesForPost(ctx, post)
		if err != nil {
			return nil, err
		}
		list = append(list, images...)
		sendProgress(progress, listAssetsUpdate(i+1, len(posts), len(list)))
	}

	if err := shared.WriteJSON(e.opts.Paths.AssetsFile(), list); err != nil {
		return nil, err
	}

	e.logger.Info("asset list complete", "posts", len(posts), "images", len(list))
	return list, nil
}

func (e *MigrationEngine) imagesForPost(ctx context.Context, post models.Post) ([]models.Image, error) {
	var images []models.Image

	if post.FeaturedMedia != 0 {
		media, err := e.source.Media(ctx, post.FeaturedMedia)
		switch {
		case errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrAPIRequest):
			e.logger.Warn("featured media unavailable", "post", post.Slug, "media", post.FeaturedMedia, "err", err)
		case err != nil:
			return nil, fmt.Errorf("failed to fetch media %d for %s: %w", post.FeaturedMedia, post.Slug, err)
		case media.GUID.Rendered == "":
			e.logger.Warn("featured media has no source URL", "post", post.Slug, "media", post.FeaturedMedia)
		default:
			images = append(images, models.Image{
				MediaNumber: post.FeaturedMedia,
				Link:        media.GUID.Rendered,
				Title:       media.Title.Rendered,
				Description: media.AltText,
				PostID:      post.ID,
			})
		}
	}

	return append(images, post.BodyImages...), nil
}

// AssetWriterOpts configures an [AssetWriter].
type AssetWriterOpts struct {
	Locale       string
	Delay        time.Duration // pause before each remote call
	PollInterval time.Duration // wait between processing checks (default: 2s)
	MaxPolls     int           // processing checks before giving up (default: 10)
}

// AssetWriter uploads one image per call to [AssetWriter.Write]: create, process, wait for the file URL, publish.
type AssetWriter struct {
	client AssetClient
	opts   AssetWriterOpts

	mu       sync.Mutex
	uploaded map[string]models.UploadedAsset // by image link
}

// NewAssetWriter returns an [AssetWriter] using client.
func NewAssetWriter(client AssetClient, opts AssetWriterOpts) *AssetWriter {
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	return &AssetWriter{client: client, opts: opts, uploaded: make(map[string]models.UploadedAsset)}
}

// Write is a [WriteFunc] for images.
func (w *AssetWriter) Write(ctx context.Context, img models.Image) error {
	fields := w.fields(img)

	if err := sleep(ctx, w.opts.Delay); err != nil {
		return err
	}
	asset, err := w.client.CreateAsset(ctx, fields)
	if err != nil {
		return fmt.Errorf("%w: create asset %s: %w", shared.ErrRemoteWrite, img.Link, err)
	}

	if err := sleep(ctx, w.opts.Delay); err != nil {
		return err
	}
	if err := w.client.ProcessAsset(ctx, asset); err != nil {
		return fmt.Errorf("%w: process asset %s: %w", shared.ErrRemoteWrite, asset.Sys.ID, err)
	}

	var processed *models.Asset
	for range w.opts.MaxPolls {
		if err := sleep(ctx, w.opts.PollInterval); err != nil {
			return err
		}
		got, err := w.client.GetAsset(ctx, asset.Sys.ID)
		if err != nil {
			return fmt.Errorf("%w: get asset %s: %w", shared.ErrRemoteWrite, asset.Sys.ID, err)
		}
		if got.FileURL(w.opts.Locale) != "" {
			processed = got
			break
		}
	}
	if processed == nil {
		return fmt.Errorf("%w: asset %s after %d checks", shared.ErrAssetProcessing, asset.Sys.ID, w.opts.MaxPolls)
	}

	if err := sleep(ctx, w.opts.Delay); err != nil {
		return err
	}
	if _, err := w.client.PublishAsset(ctx, processed); err != nil {
		return fmt.Errorf("%w: publish asset %s: %w", shared.ErrRemoteWrite, asset.Sys.ID, err)
	}

	w.mu.Lock()
	w.uploaded[img.Link] = models.UploadedAsset{ID: processed.Sys.ID, URL: absoluteURL(processed.FileURL(w.opts.Locale))}
	w.mu.Unlock()
	return nil
}

func (w *AssetWriter) fields(img models.Image) models.AssetFields {
	name := img.Link
	if u, err := url.Parse(img.Link); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	}

	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	title := img.Title
	if title == "" {
		title = name
	}

	return models.AssetFields{
		Title:       map[string]string{w.opts.Locale: title},
		Description: map[string]string{w.opts.Locale: img.Description},
		File: map[string]models.AssetFile{
			w.opts.Locale: {ContentType: contentType, FileName: name, Upload: img.Link},
		},
	}
}

// Records pairs each image with the asset uploaded for its link, in the order given.
// Images sharing a link share the asset; images whose link was not uploaded are skipped.
func (w *AssetWriter) Records(images []models.Image) []models.AssetRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.AssetRecord, 0, len(images))
	for _, img := range images {
		if a, ok := w.uploaded[img.Link]; ok {
			out = append(out, models.AssetRecord{WordPress: img, Contentful: a})
		}
	}
	return out
}

// absoluteURL gives protocol-relative Contentful URLs an https scheme.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// ImageLink identifies an image for the uploader.
func ImageLink(img models.Image) string {
	return img.Link
}

// dedupeImages keeps the first image per link. Images without a link are dropped.
func dedupeImages(images []models.Image) []models.Image {
	seen := make(map[string]struct{}, len(images))
	out := make([]models.Image, 0, len(images))
	for _, img := range images {
		if img.Link == "" {
			continue
		}
		if _, ok := seen[img.Link]; ok {
			continue
		}
		seen[img.Link] = struct{}{}
		out = append(out, img)
	}
	return out
}

// UploadAssets uploads every image in assets/list/assets.json.
//
// Uploaded assets are written to done.json, failures to failed.json. An image referenced by several posts is uploaded once,
// but done.json keeps one record per listed image so featured media numbers survive. Images without a link are skipped.
func (e *MigrationEngine) UploadAssets(ctx context.Context, progress chan<- ProgressUpdate) (*UploadResult[models.Image], error) {
	if err := e.requireDest(); err != nil {
		return nil, err
	}

	var images []models.Image
	if err := shared.ReadJSON(e.opts.Paths.AssetsFile(), &images); err != nil {
		return nil, fmt.Errorf("failed to load asset list: %w", err)
	}
	for i, img := range images {
		if img.Link == "" {
			e.logger.Warn("skipping image without a link", "index", i, "media", img.MediaNumber, "post", img.PostID)
		}
	}
	unique := dedupeImages(images)

	writer := NewAssetWriter(e.dest, AssetWriterOpts{
		Locale:       e.opts.Locale,
		Delay:        e.opts.Delay,
		PollInterval: e.opts.PollInterval,
	})
	up, err := NewUploader(e.uploaderOpts(PhaseUploadAssets, "assets"), ImageLink, writer.Write)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := up.Run(ctx, unique, progress)
	if err != nil {
		return nil, err
	}

	done := make(map[string]struct{}, len(res.Done))
	for _, img := range res.Done {
		done[img.Link] = struct{}{}
	}
	listed := make([]models.Image, 0, len(images))
	for _, img := range images {
		if _, ok := done[img.Link]; ok {
			listed = append(listed, img)
		}
	}

	if err := shared.WriteJSON(e.opts.Paths.AssetsDoneFile(), writer.Records(listed)); err != nil {
		return res, err
	}
	if err := shared.WriteJSON(e.opts.Paths.AssetsFailedFile(), res.Failed); err != nil {
		return res, err
	}

	recordRun(e, models.RunKindAssets, started, up.Concurrency(), res, ImageLink)
	return res, nil
}
