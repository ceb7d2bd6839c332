package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ArxivDigest/internal/app"
	"ArxivDigest/internal/config"
	"ArxivDigest/internal/logging"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to YAML configuration")
	dryRun := flag.Bool("dry-run", false, "fetch and summarize but do not deliver")
	daemon := flag.Bool("daemon", false, "keep running and execute on the configured cron schedule")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arxivdigest: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(cfg.Logging.Level)
	application := app.New(cfg, logger, app.Options{DryRun: *dryRun, Daemon: *daemon})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *daemon {
		if err := application.RunDaemon(ctx); err != nil {
			logger.Error("daemon stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	report, err := application.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	if report.FullFailure() {
		logger.Error("nothing fetched and nothing delivered")
		os.Exit(1)
	}

	logger.Info("run finished",
		"fetched", report.Fetched,
		"matched", report.Matched,
		"summarized", report.Summarized,
		"summary_failures", report.SummaryFailures,
		"delivered", report.Delivered())
}
