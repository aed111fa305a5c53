// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// checkCommand submits cookies for validation
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "check",
		Aliases: []string{"ck"},
		Usage:   "Check a batch of cookies against the backend",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read cookies from a file (one per line, '-' for stdin)",
			},
			&cli.StringSliceFlag{
				Name:  "cookie",
				Usage: "Cookie to check (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.StringFlag{
				Name:  "save-valid",
				Usage: "Write valid cookies to a file after the check",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export results to a file (.txt for plain text, otherwise CSV)",
			},
		},
		Action: r.Check,
	}
}

// historyCommand handles past check operations
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"hist"},
		Usage:   "Browse and manage past checks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List past checks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.BoolFlag{
						Name:  "local",
						Usage: "List from the local cache instead of the backend",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show the full results of one past check",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Session ID to show",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Export results to a file (.txt for plain text, otherwise CSV)",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete one past check",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Session ID to delete",
						Required: true,
					},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:  "clear",
				Usage: "Delete every past check",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent delete workers",
						Value: 5,
					},
				},
				Action: r.HistoryClear,
			},
			{
				Name:  "download",
				Usage: "Download a session's result archive",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Session ID to download",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.HistoryDownload,
			},
		},
	}
}

// statsCommand fetches aggregate counters
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show backend-wide aggregate counters",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "legacy",
				Usage: "Use the deprecated counter shape",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Stats,
	}
}

// healthCommand probes backend availability
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Probe backend availability",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Health,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse check history interactively",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}
