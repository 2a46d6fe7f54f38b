package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// runView is the JSON form of an upload run.
type runView struct {
	ID         string     `json:"id"`
	Sequence   int        `json:"sequence"`
	BaseURL    string     `json:"base_url"`
	Total      int        `json:"total"`
	Added      int        `json:"added"`
	Duplicates int        `json:"duplicates"`
	Errors     int        `json:"errors"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type batchView struct {
	ID         string            `json:"id"`
	Kind       models.BulkKind   `json:"kind"`
	PlaylistID string            `json:"playlist_id,omitempty"`
	Requested  int               `json:"requested"`
	Result     models.BulkResult `json:"result"`
	Failure    string            `json:"failure,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type recordView struct {
	Position int                `json:"position"`
	File     models.UploadFile  `json:"file"`
	Outcome  models.Outcome     `json:"outcome"`
	Entry    models.UploadEntry `json:"entry"`
}

func newRunView(run *models.UploadRun) runView {
	return runView{
		ID:         run.ID(),
		Sequence:   run.Sequence(),
		BaseURL:    run.BaseURL(),
		Total:      run.Total(),
		Added:      run.Added(),
		Duplicates: run.Duplicates(),
		Errors:     run.Errors(),
		StartedAt:  run.CreatedAt(),
		FinishedAt: run.FinishedAt(),
	}
}

func newBatchView(a *models.BulkAction) batchView {
	return batchView{
		ID:         a.ID(),
		Kind:       a.Kind(),
		PlaylistID: a.PlaylistID(),
		Requested:  a.Requested(),
		Result:     a.Result(),
		Failure:    a.Failure(),
		CreatedAt:  a.CreatedAt(),
	}
}

// HistoryList shows recent upload runs and bulk actions.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	history, err := r.requireHistory()
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	recent, err := history.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	data := map[string]any{
		"runs":    lo.Map(recent.Runs, func(run *models.UploadRun, _ int) runView { return newRunView(run) }),
		"batches": lo.Map(recent.Batches, func(a *models.BulkAction, _ int) batchView { return newBatchView(a) }),
	}
	return r.writeResult(cmd, data, func() error {
		r.writePlainHeader(fmt.Sprintf("Upload runs (%d)", len(recent.Runs)))
		if len(recent.Runs) == 0 {
			r.writePlain("%s\n", mutedColor.Sprint("No uploads yet"))
		}
		for _, run := range recent.Runs {
			status := okColor.Sprint("done")
			if !run.Finished() {
				status = warnColor.Sprint("interrupted")
			}
			r.writePlain("%s  %s  %s  %d files: %s added, %s duplicates, %s errors  %s\n",
				numberColor.Sprintf("#%-3d", run.Sequence()),
				run.CreatedAt().Local().Format(time.DateTime),
				status,
				run.Total(),
				okColor.Sprint(run.Added()),
				warnColor.Sprint(run.Duplicates()),
				errColor.Sprint(run.Errors()),
				mutedColor.Sprint(run.ID()),
			)
		}

		r.writePlain("\n")
		r.writePlainHeader(fmt.Sprintf("Bulk actions (%d)", len(recent.Batches)))
		if len(recent.Batches) == 0 {
			r.writePlain("%s\n", mutedColor.Sprint("No bulk actions yet"))
		}
		for _, a := range recent.Batches {
			target := "device"
			if a.PlaylistID() != "" {
				target = "playlist " + a.PlaylistID()
			}
			line := fmt.Sprintf("%s %d tracks -> %s", a.Kind(), a.Requested(), target)
			if a.Failed() {
				line += "  " + errColor.Sprint(a.Failure())
			} else {
				res := a.Result()
				line += "  " + mutedColor.Sprintf("(%d added, %d duplicates, %d errors)", res.Added, res.Duplicates, res.Errors)
			}
			r.writePlain("%s  %s\n", a.CreatedAt().Local().Format(time.DateTime), line)
		}
		return nil
	})
}

// HistoryShow prints the per-file outcomes of one upload run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	history, err := r.requireHistory()
	if err != nil {
		return err
	}

	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	records, err := history.Records(id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	views := lo.Map(records, func(rec *models.UploadRecord, _ int) recordView {
		return recordView{Position: rec.Position(), File: rec.File(), Outcome: rec.Outcome(), Entry: rec.Entry()}
	})
	return r.writeResult(cmd, views, func() error {
		r.writePlainHeader(fmt.Sprintf("Run %s (%d files)", id, len(records)))
		for _, rec := range records {
			var mark, detail string
			switch rec.Outcome() {
			case models.OutcomeAdded:
				mark, detail = okColor.Sprint("+"), rec.Entry().Label()
			case models.OutcomeDuplicate:
				mark, detail = warnColor.Sprint("="), "already in library"
			default:
				mark, detail = errColor.Sprint("!"), lo.CoalesceOrEmpty(rec.Entry().Reason, "Unknown error")
			}
			r.writePlain("%3d %s %s  %s\n", rec.Position()+1, mark, rec.File().Name, mutedColor.Sprint(detail))
		}
		return nil
	})
}

// HistoryMigrations lists schema migrations and whether each is applied.
func (r *Runner) HistoryMigrations(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: upload history is disabled (set database.path)", shared.ErrServiceUnavailable)
	}

	states, err := shared.MigrationStatus(r.db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, s := range states {
		status := warnColor.Sprint("pending")
		if s.Applied() {
			status = okColor.Sprint("applied ") + mutedColor.Sprint(s.AppliedAt.Local().Format(time.DateTime))
		}
		r.writePlain("%s  %-32s %s\n", numberColor.Sprintf("%03d", s.Version), s.Name, status)
	}
	return nil
}
