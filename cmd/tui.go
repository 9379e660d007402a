package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/wpx/internal/formatter"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/desertthunder/wpx/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/wpx-tui.log"

// runStage runs job under the TUI when --tui is set, otherwise printing progress messages as they arrive.
// The result summary is printed in both cases and failures are written to --report when given.
func (r *Runner) runStage(ctx context.Context, cmd *cli.Command, title string, job ui.Job) (*ui.Result, error) {
	var (
		result *ui.Result
		err    error
	)
	if cmd.Bool("tui") {
		result, err = r.runTUI(ctx, title, job)
	} else {
		result, err = r.runPlain(ctx, job)
	}
	if err != nil {
		return result, err
	}

	r.writeResult(result)
	if path := cmd.String("report"); path != "" && result != nil {
		if err := r.writeReport(path, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// runTUI redirects logs to a file so they do not interfere with TUI rendering.
func (r *Runner) runTUI(ctx context.Context, title string, job ui.Job) (*ui.Result, error) {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	previous := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(previous)

	return ui.Run(ctx, title, job)
}

func (r *Runner) runPlain(ctx context.Context, job ui.Job) (*ui.Result, error) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Message != "" {
				r.writePlain("[%s] %s\n", update.Phase, update.Message)
			}
		}
	}()

	result, err := job(ctx, progress)
	close(progress)
	<-done
	return result, err
}

func (r *Runner) writeResult(result *ui.Result) {
	if result == nil {
		return
	}

	r.writePlain("\n")
	r.writePlainHeader(result.Title)
	r.writePlain("Done: %d\n", result.Done)
	r.writePlain("Failed: %d\n", len(result.Failed))
	for _, f := range result.Failed {
		r.writePlain("  - %s: %s\n", f.Identifier, f.Error)
	}
	for _, note := range result.Notes {
		r.writePlain("%s\n", note)
	}
}

func (r *Runner) writeReport(path string, result *ui.Result) error {
	rows := make([]formatter.FailureRow, 0, len(result.Failed))
	for _, f := range result.Failed {
		rows = append(rows, formatter.FailureRow{Identifier: f.Identifier, Error: f.Error})
	}
	if err := formatter.WriteFailuresCSV(path, rows); err != nil {
		return err
	}
	r.logger.Info("failure report written", "path", filepath.Clean(path), "rows", len(rows))
	return nil
}
