package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// SourceClient reads the WordPress REST API.
type SourceClient interface {
	Page(ctx context.Context, resource string, n int) ([]json.RawMessage, error)
	Media(ctx context.Context, id int) (*models.WPMedia, error)
}

// AssetClient is the part of the Contentful API used to upload images.
type AssetClient interface {
	CreateAsset(ctx context.Context, fields models.AssetFields) (*models.Asset, error)
	ProcessAsset(ctx context.Context, asset *models.Asset) error
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	PublishAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error)
}

// AuthorClient lists the author entries authors are matched against.
type AuthorClient interface {
	ListEntries(ctx context.Context, contentType string) (*models.EntryCollection, error)
}

// ContentfulClient is everything the engine needs from Contentful.
type ContentfulClient interface {
	EntryClient
	AssetClient
	AuthorClient
}

// RunRecorder persists the summary of an upload run. Optional; errors are logged and otherwise ignored.
type RunRecorder interface {
	RecordRun(run *models.UploadRun, outcomes []*models.UploadOutcome) error
}

// EngineOpts configures a [MigrationEngine].
type EngineOpts struct {
	Paths             shared.Paths
	RedirectBaseURL   string
	Locale            string
	FallbackAuthorID  string
	PostContentType   string
	AuthorContentType string
	Concurrency       int
	Delay             time.Duration
	Timeout           time.Duration
	PollInterval      time.Duration
	Logger            *log.Logger
	Recorder          RunRecorder
}

// MigrationEngine runs the migration stages against a WordPress source and a Contentful destination.
//
// Stages communicate only through the files under [EngineOpts.Paths], so each can run on its own.
// Either client may be nil when only stages that do not need it are used.
type MigrationEngine struct {
	source SourceClient
	dest   ContentfulClient
	opts   EngineOpts
	logger *log.Logger
}

// NewMigrationEngine creates a [MigrationEngine], filling in content type and locale defaults.
func NewMigrationEngine(source SourceClient, dest ContentfulClient, opts EngineOpts) *MigrationEngine {
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	if opts.PostContentType == "" {
		opts.PostContentType = "post"
	}
	if opts.AuthorContentType == "" {
		opts.AuthorContentType = "author"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &MigrationEngine{source: source, dest: dest, opts: opts, logger: opts.Logger}
}

// Paths returns the layout of the stage files.
func (e *MigrationEngine) Paths() shared.Paths {
	return e.opts.Paths
}

func (e *MigrationEngine) requireSource() error {
	if e.source == nil {
		return fmt.Errorf("%w: WordPress client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (e *MigrationEngine) requireDest() error {
	if e.dest == nil {
		return fmt.Errorf("%w: Contentful client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (e *MigrationEngine) uploaderOpts(phase Phase, label string) UploaderOpts {
	return UploaderOpts{
		Concurrency: e.opts.Concurrency,
		Timeout:     e.opts.Timeout,
		Phase:       phase,
		Label:       label,
		Logger:      e.logger,
	}
}

// recordRun stores the run summary when a recorder is configured.
func recordRun[T any](e *MigrationEngine, kind string, started time.Time, concurrency int, res *UploadResult[T], identify func(T) string) {
	if e.opts.Recorder == nil || res == nil {
		return
	}

	run := models.NewUploadRun(0, kind, res.Total(), concurrency)
	run.SetStartedAt(started)
	run.Complete(len(res.Done), len(res.Failed))

	outcomes := make([]*models.UploadOutcome, 0, res.Total())
	for _, item := range res.Done {
		outcomes = append(outcomes, models.NewUploadOutcome("", identify(item), ""))
	}
	for _, f := range res.Failed {
		outcomes = append(outcomes, models.NewUploadOutcome("", identify(f.Item), f.Error))
	}

	if err := e.opts.Recorder.RecordRun(run, outcomes); err != nil {
		e.logger.Warn("failed to record upload run", "kind", kind, "err", err)
	}
}

// MigrationSummary collects the results of a full [MigrationEngine.Migrate] run.
type MigrationSummary struct {
	UserPages int
	PostPages int
	Posts     int
	Images    int
	Assets    *UploadResult[models.Image]
	Authors   []models.AuthorMatch
	Created   *UploadResult[models.Post]
}

// Migrate runs every stage in order after cleaning the output directory. It stops at the first stage error.
func (e *MigrationEngine) Migrate(ctx context.Context, progress chan<- ProgressUpdate) (*MigrationSummary, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}
	if err := e.requireDest(); err != nil {
		return nil, err
	}
	if err := e.opts.Paths.Clean(); err != nil {
		return nil, err
	}

	var (
		summary MigrationSummary
		err     error
	)

	if summary.UserPages, err = e.DownloadUsers(ctx, progress); err != nil {
		return &summary, err
	}
	if summary.PostPages, err = e.DownloadPosts(ctx, progress); err != nil {
		return &summary, err
	}
	if summary.Posts, err = e.TransformPosts(ctx, progress); err != nil {
		return &summary, err
	}

	images, err := e.BuildAssetList(ctx, progress)
	if err != nil {
		return &summary, err
	}
	summary.Images = len(images)

	if summary.Assets, err = e.UploadAssets(ctx, progress); err != nil {
		return &summary, err
	}
	if summary.Authors, err = e.MatchAuthors(ctx, progress); err != nil {
		return &summary, err
	}
	if summary.Created, err = e.CreatePosts(ctx, progress); err != nil {
		return &summary, err
	}

	return &summary, nil
}
