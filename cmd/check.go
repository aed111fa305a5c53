package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/ckx/internal/formatter"
	"github.com/desertthunder/ckx/internal/shared"
	"github.com/desertthunder/ckx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Check submits a batch of cookies and renders the reconciled result set.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	if r.checker == nil {
		return fmt.Errorf("%w: checker service not initialized", shared.ErrServiceUnavailable)
	}

	lines, err := r.gatherCookieLines(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("submitting batch", "candidates", len(lines))

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	rs, err := r.engine.Check(ctx, lines, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	r.logger.Info("check complete", "session", rs.SessionID, "valid", rs.Valid, "invalid", rs.Invalid)

	if path := cmd.String("save-valid"); path != "" {
		saved, count, err := formatter.WriteValidCookies(rs, path)
		if err != nil {
			return fmt.Errorf("failed to save valid cookies: %w", err)
		}
		r.writePlain("Saved %d valid cookies to %s\n", count, saved)
	}

	view := formatter.BuildResultView(rs)

	if path := cmd.String("output"); path != "" {
		saved, err := formatter.WriteExport(view, path)
		if err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
		r.writePlain("Exported results to %s\n", saved)
	}

	if cmd.Bool("json") {
		return r.writeJSON(rs, cmd.Bool("pretty"))
	}

	return r.renderResultView(view)
}

// gatherCookieLines collects raw candidate lines from flags, a file, or stdin.
func (r *Runner) gatherCookieLines(cmd *cli.Command) ([]string, error) {
	lines := cmd.StringSlice("cookie")

	path := cmd.String("file")
	switch {
	case path == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	case path != "":
		fileLines, err := tasks.ReadCookieFile(path)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fileLines...)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: provide --cookie or --file", shared.ErrMissingArgument)
	}

	return lines, nil
}

// renderResultView writes the human-readable form of a result view.
func (r *Runner) renderResultView(view formatter.ResultView) error {
	r.writePlainHeader(fmt.Sprintf("Session %s", view.SessionID))
	r.writePlain("Total: %d  Valid: %d  Invalid: %d\n", view.Summary.Total, view.Summary.Valid, view.Summary.Invalid)

	for _, card := range view.Cards {
		r.writePlainln("#%d %s (%s)", card.Index, card.Username, card.CookiePreview)
		r.writePlain("  User ID: %d  Created: %s  Age: %d years\n", card.UserID, card.CreatedDate, card.AccountAgeYears)
		r.writePlain("  Robux: %d (pending %d)  Value: %.2f\n", card.TotalRobux, card.PendingRobux, card.AccountValue)
		r.writePlain("  Premium: %s  2FA: %t\n", card.PremiumStatus, card.TwoFactorEnabled)
		r.writePlain("  Friends: %d  Followers: %d  Following: %d\n", card.FriendsCount, card.FollowersCount, card.FollowingCount)
	}

	if view.HasInvalid {
		r.writePlainln("Invalid cookies:")
		for _, row := range view.InvalidRows {
			r.writePlain("  #%d %s • %s\n", row.Index, row.CookiePreview, row.Error)
		}
	}

	return nil
}
