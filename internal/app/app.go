package app

import (
	"context"
	"log/slog"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/infrastructure/arxiv"
	"ArxivDigest/internal/infrastructure/email"
	"ArxivDigest/internal/infrastructure/llm"
	"ArxivDigest/internal/infrastructure/notify"
	"ArxivDigest/internal/infrastructure/parser"
	"ArxivDigest/internal/infrastructure/scheduler"
	"ArxivDigest/internal/logging"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/scanner"
	"ArxivDigest/internal/usecase"
)

// Options selects the run mode of a single invocation.
type Options struct {
	DryRun bool
	Daemon bool
}

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	logger    *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger, opts Options) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := scanner.NewRegistry()
	registry.Register(arxiv.NewFeedScanner(nil, baseLogger.With("component", "scanner.api")))
	registry.Register(parser.NewListingScanner(nil, baseLogger.With("component", "scanner.listing")))

	source := parser.NewStrategySource(registry, cfg.Arxiv, baseLogger.With("component", "source"))

	var summarizer ports.Summarizer
	if cfg.OpenAI.APIKey != "" {
		summarizer = llm.NewOpenAIClient(cfg.OpenAI)
	} else {
		baseLogger.Warn("no OpenAI API key configured, digests will carry placeholder summaries")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:          source,
		Summarizer:      summarizer,
		Deliverers:      buildDeliverers(cfg),
		Keywords:        cfg.Keywords,
		IncludeAbstract: cfg.Output.IncludeAbstract,
		DryRun:          opts.DryRun,
		Logger:          baseLogger.With("component", "pipeline"),
	})

	application := &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}

	if opts.Daemon {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		application.scheduler = usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))
	}

	return application
}

// buildDeliverers maps output.format and email.enabled onto independent
// delivery paths.
func buildDeliverers(cfg config.Config) []ports.Deliverer {
	var deliverers []ports.Deliverer

	if cfg.Output.Format == config.FormatText || cfg.Output.Format == config.FormatBoth {
		deliverers = append(deliverers, notify.NewFileWriter(cfg.Output.OutputFile))
	}
	if (cfg.Output.Format == config.FormatEmail || cfg.Output.Format == config.FormatBoth) && cfg.Email.Enabled {
		deliverers = append(deliverers, email.NewMailer(cfg.Email))
	}

	return deliverers
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.Report, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// RunDaemon starts the cron scheduler and blocks until the context ends.
func (a *Application) RunDaemon(ctx context.Context) error {
	if a.scheduler == nil {
		return nil
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}
