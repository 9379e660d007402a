package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of an upload run.
type runView struct {
	Sequence    int           `json:"sequence"`
	Kind        string        `json:"kind"`
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Concurrency int           `json:"concurrency"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Outcomes    []outcomeView `json:"outcomes,omitempty"`
}

type outcomeView struct {
	Identifier string `json:"identifier"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func newRunView(run *models.UploadRun) runView {
	return runView{
		Sequence:    run.Sequence(),
		Kind:        run.Kind(),
		Total:       run.Total(),
		Succeeded:   run.Succeeded(),
		Failed:      run.Failed(),
		Concurrency: run.Concurrency(),
		StartedAt:   run.StartedAt(),
		CompletedAt: run.CompletedAt(),
	}
}

// HistoryList prints recorded upload runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.repository()
	if err != nil {
		return err
	}

	runs, err := repo.List(map[string]any{"kind": cmd.String("kind"), "limit": int(cmd.Int("limit"))})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			views = append(views, newRunView(run))
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		r.writePlain("No upload runs recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Upload runs (%d)", len(runs)))
	for _, run := range runs {
		r.writePlain("#%-4d %-6s %3d/%-3d done  %3d failed  %s  (%s)\n",
			run.Sequence(), run.Kind(), run.Succeeded(), run.Total(), run.Failed(),
			run.StartedAt().Local().Format(time.DateTime), run.Duration().Round(time.Millisecond))
	}
	return nil
}

// HistoryShow prints one run and the outcome of each of its items.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	run, err := r.runArg(cmd)
	if err != nil {
		return err
	}

	outcomes, err := r.runs.Outcomes(run.ID())
	if err != nil {
		return err
	}

	failedOnly := cmd.Bool("failed")
	view := newRunView(run)
	for _, o := range outcomes {
		if failedOnly && o.Status() != models.OutcomeFailed {
			continue
		}
		view.Outcomes = append(view.Outcomes, outcomeView{Identifier: o.Identifier(), Status: o.Status(), Error: o.ErrorMessage()})
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", view.Sequence, view.Kind))
	r.writePlain("Started: %s\n", view.StartedAt.Local().Format(time.DateTime))
	r.writePlain("Concurrency: %d\n", view.Concurrency)
	r.writePlain("Done: %d/%d\n", view.Succeeded, view.Total)
	r.writePlain("Failed: %d\n", view.Failed)
	if len(view.Outcomes) > 0 {
		r.writePlainln("Items:")
	}
	for _, o := range view.Outcomes {
		if o.Error != "" {
			r.writePlain("  ✗ %s: %s\n", o.Identifier, o.Error)
		} else {
			r.writePlain("  ✓ %s\n", o.Identifier)
		}
	}
	return nil
}

// HistoryDelete hides a run from the history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	run, err := r.runArg(cmd)
	if err != nil {
		return err
	}
	if err := r.runs.Delete(run.ID()); err != nil {
		return err
	}
	r.writePlain("Deleted run #%d\n", run.Sequence())
	return nil
}

// runArg resolves the sequence number given as the first argument.
func (r *Runner) runArg(cmd *cli.Command) (*models.UploadRun, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return nil, fmt.Errorf("%w: run sequence number", shared.ErrMissingArgument)
	}
	seq, err := strconv.Atoi(arg)
	if err != nil || seq < 1 {
		return nil, fmt.Errorf("%w: run sequence must be a positive number, got %q", shared.ErrInvalidArgument, arg)
	}

	repo, err := r.repository()
	if err != nil {
		return nil, err
	}
	return repo.GetBySequence(seq)
}

// historyCommand reads the upload run history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded upload runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List upload runs, newest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only show runs of this kind (assets or posts)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				}, jsonFlags()...),
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show a run and its item outcomes",
				ArgsUsage: "<sequence>",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "failed",
						Usage: "Only list failed items",
					},
				}, jsonFlags()...),
				Action: r.HistoryShow,
			},
			{
				Name:      "delete",
				Usage:     "Remove a run from the history",
				ArgsUsage: "<sequence>",
				Action:    r.HistoryDelete,
			},
		},
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}
