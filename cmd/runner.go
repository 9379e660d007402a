package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/repositories"
	"github.com/desertthunder/wpx/internal/services"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	wordpress  tasks.SourceClient
	contentful tasks.ContentfulClient
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.MigrationEngine

	// clients passed in through RunnerOpts are never rebuilt from config
	fixedSource bool
	fixedDest   bool

	db   *sql.DB
	runs *repositories.RunRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	WordPress  tasks.SourceClient
	Contentful tasks.ContentfulClient
	Runs       *repositories.RunRepository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		configPath:  opts.ConfigPath,
		wordpress:   opts.WordPress,
		contentful:  opts.Contentful,
		fixedSource: opts.WordPress != nil,
		fixedDest:   opts.Contentful != nil,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		runs:        opts.Runs,
	}
	r.configure(opts.Config)
	return r
}

// configure swaps in config and rebuilds the API clients and engine from it.
//
// A client whose settings are incomplete is left nil; stages that need it then fail with [shared.ErrServiceUnavailable].
func (r *Runner) configure(config *shared.Config) {
	r.config = config

	if !r.fixedSource {
		r.wordpress = nil
		svc, err := services.NewWordPressService(config.WordPress.APIURL, config.WordPress.RateLimit, r.httpClient)
		if err != nil {
			r.logger.Debug("WordPress client not configured", "err", err)
		} else {
			r.wordpress = svc
		}
	}

	if !r.fixedDest {
		r.contentful = nil
		svc, err := services.NewContentfulService(context.Background(), services.ContentfulOpts{
			BaseURL:     config.Contentful.BaseURL,
			AccessToken: config.Contentful.AccessToken,
			SpaceID:     config.Contentful.SpaceID,
			Environment: config.Contentful.Environment,
			Locale:      config.Contentful.Locale,
			RateLimit:   config.Contentful.RateLimit,
			Client:      r.httpClient,
		})
		if err != nil {
			r.logger.Debug("Contentful client not configured", "err", err)
		} else {
			r.contentful = svc
		}
	}

	r.engine = tasks.NewMigrationEngine(r.wordpress, r.contentful, tasks.EngineOpts{
		Paths:             shared.NewPaths(config.Paths.OutputDir),
		RedirectBaseURL:   config.WordPress.RedirectBaseURL,
		Locale:            config.Contentful.Locale,
		FallbackAuthorID:  config.Contentful.FallbackAuthorID,
		PostContentType:   config.Contentful.PostContentType,
		AuthorContentType: config.Contentful.AuthorContentType,
		Concurrency:       config.Upload.Concurrency,
		Delay:             config.Upload.Delay.Duration,
		Timeout:           config.Upload.Timeout.Duration,
		PollInterval:      config.Upload.PollInterval.Duration,
		Logger:            r.logger,
		Recorder:          r,
	})
}

// SetLogger replaces the logger used by the runner and its engine.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.configure(r.config)
}

// Before loads the config file named by --config, then applies environment overrides.
//
// A missing file is not an error: defaults and the environment are used instead.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		loaded, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	config.ApplyEnv(nil)

	r.configure(config)
	return ctx, nil
}

// repository opens the history database on first use.
func (r *Runner) repository() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	r.db = db
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

// RecordRun implements [tasks.RunRecorder] against the history database.
func (r *Runner) RecordRun(run *models.UploadRun, outcomes []*models.UploadOutcome) error {
	repo, err := r.repository()
	if err != nil {
		return err
	}
	if err := repo.RecordRun(run, outcomes); err != nil {
		return err
	}
	r.logger.Debug("upload run recorded", "sequence", run.Sequence(), "kind", run.Kind())
	return nil
}

// Close releases the history database if it was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.runs = nil, nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, wordpressCommand, contentfulCommand, migrateCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
