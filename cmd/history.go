package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ckx/internal/formatter"
	"github.com/desertthunder/ckx/internal/models"
	"github.com/desertthunder/ckx/internal/repositories"
	"github.com/desertthunder/ckx/internal/shared"
	"github.com/desertthunder/ckx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryList lists past checks from the backend, or the local cache with --local.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	var (
		records []models.HistoryRecord
		err     error
	)

	if cmd.Bool("local") {
		repo, ok := r.cache.(*repositories.CheckRepository)
		if !ok || repo == nil {
			return fmt.Errorf("%w: local cache not initialized, run 'ckx setup' first", shared.ErrServiceUnavailable)
		}
		records, err = repo.List()
	} else {
		records, err = r.engine.History(ctx, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	view := formatter.BuildHistoryView(records)

	r.writePlainHeader("Check History")
	for _, row := range view.Rows {
		r.writePlain("%s  %s  %d/%d valid\n", row.SessionID, row.CheckDate, row.ValidCookies, row.TotalCookies)
	}
	r.writePlainln("%d checks • %s cookies • %.1f%% valid",
		view.Stats.TotalChecks, shared.FormatCount(int64(view.Stats.TotalCookies)), view.Stats.SuccessRate)

	return nil
}

// HistoryShow renders the full results of one past check.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.String("id")

	rs, err := r.engine.LoadSession(ctx, sessionID, nil)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(rs, cmd.Bool("pretty"))
	}

	view := formatter.BuildResultView(rs)

	if path := cmd.String("output"); path != "" {
		saved, err := formatter.WriteExport(view, path)
		if err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
		r.writePlain("Exported results to %s\n", saved)
	}

	return r.renderResultView(view)
}

// HistoryDelete removes one past check.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.String("id")

	if err := r.engine.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	r.logger.Info("session deleted", "session", sessionID)
	r.writePlain("✓ Deleted %s\n", sessionID)
	return nil
}

// HistoryClear removes every past check, reporting partial failures.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	result, err := r.engine.ClearHistory(ctx, progress, tasks.ClearOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Checker.RateLimit,
	})
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	r.writePlain("Deleted %d/%d checks\n", result.Deleted, result.Attempted)
	if !result.Success() {
		for _, failure := range result.Failures {
			r.writePlain("  failed: %s: %v\n", failure.SessionID, failure.Err)
		}
		return fmt.Errorf("%d of %d deletes did not complete", result.Attempted-result.Deleted, result.Attempted)
	}

	return nil
}

// HistoryDownload streams a session's archive to disk.
func (r *Runner) HistoryDownload(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.String("id")

	path, n, err := r.engine.Download(ctx, sessionID, cmd.String("output"), nil)
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}

	r.logger.Info("archive downloaded", "session", sessionID, "bytes", n)
	r.writePlain("✓ Saved %s (%s bytes)\n", path, shared.FormatCount(n))
	return nil
}
