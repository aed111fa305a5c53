package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ckx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Stats fetches backend-wide aggregate counters.
//
// The canonical shape counts checked cookies and unique users; --legacy
// selects the deprecated per-check counter shape older deployments expose.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("legacy") {
		stats, err := r.checker.LegacyStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(stats, cmd.Bool("pretty"))
		}

		r.writePlainHeader("Checker Stats (legacy)")
		r.writePlain("Checks run:    %s\n", shared.FormatCount(stats.TotalChecks))
		r.writePlain("Cookies seen:  %s\n", shared.FormatCount(stats.TotalCookies))
		r.writePlain("Valid cookies: %s\n", shared.FormatCount(stats.ValidCookies))
		r.writePlain("Success rate:  %.1f%%\n", stats.SuccessRate)
		return nil
	}

	stats, err := r.checker.GlobalStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Checker Stats")
	r.writePlain("Cookies checked: %s\n", shared.FormatCount(stats.TotalChecked))
	r.writePlain("Valid accounts:  %s\n", shared.FormatCount(stats.ValidAccounts))
	r.writePlain("Unique users:    %s\n", shared.FormatCount(stats.UniqueUsers))
	return nil
}

// Health probes backend availability.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	if err := r.checker.Health(ctx); err != nil {
		return fmt.Errorf("backend unhealthy: %w", err)
	}

	r.writePlain("✓ %s backend is healthy\n", r.checker.Name())
	return nil
}
