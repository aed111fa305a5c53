package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/ckx/internal/repositories"
	"github.com/desertthunder/ckx/internal/services"
	"github.com/desertthunder/ckx/internal/shared"
	"github.com/desertthunder/ckx/internal/tasks"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	httpClient := &http.Client{
		Timeout: time.Duration(config.Checker.RequestTimeout) * time.Second,
	}
	checker := services.NewCheckerService(config.Checker.BaseURL, httpClient, config.Checker.RateLimit)

	// The local cache is optional: commands work without a database until
	// 'ckx setup' has created one.
	var cache tasks.HistoryCache
	if _, err := os.Stat(config.Database.Path); err == nil {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			cache = repositories.NewCheckRepository(db)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Checker: checker,
		Cache:   cache,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "ckx",
		Usage:    "Validate Roblox session cookies against a checker backend",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
