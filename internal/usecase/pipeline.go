package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ArxivDigest/internal/digest"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/filter"
	"ArxivDigest/internal/ports"
)

// PipelineDeps wires all driven adapters into the digest pipeline.
type PipelineDeps struct {
	Source          ports.PaperSource
	Summarizer      ports.Summarizer
	Deliverers      []ports.Deliverer
	Keywords        [][]string
	IncludeAbstract bool
	DryRun          bool
	Logger          *slog.Logger
}

// Pipeline implements the fetch -> filter -> summarize -> deliver workflow.
// Execution is strictly sequential; there is no shared state between runs.
type Pipeline struct {
	source          ports.PaperSource
	summarizer      ports.Summarizer
	deliverers      []ports.Deliverer
	keywords        [][]string
	includeAbstract bool
	dryRun          bool
	logger          *slog.Logger
}

// Report summarizes one pipeline run.
type Report struct {
	Fetched         int
	Matched         int
	Summarized      int
	SummaryFailures int
	Deliveries      []domain.DeliveryResult
}

// Delivered counts the delivery paths that succeeded.
func (r Report) Delivered() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.OK() {
			n++
		}
	}
	return n
}

// FullFailure reports whether the run produced nothing at all: no papers
// fetched and no delivery succeeded. Partial failures (missing summaries, one
// delivery path down) still count as success.
func (r Report) FullFailure() bool {
	return r.Fetched == 0 && r.Delivered() == 0
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:          deps.Source,
		summarizer:      deps.Summarizer,
		deliverers:      deps.Deliverers,
		keywords:        deps.Keywords,
		includeAbstract: deps.IncludeAbstract,
		dryRun:          deps.DryRun,
		logger:          deps.Logger,
	}
}

// Run executes one digest cycle ending at now.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (Report, error) {
	var report Report

	if p.source == nil {
		return report, fmt.Errorf("pipeline has no paper source")
	}

	papers, err := p.source.FetchRecent(ctx, now)
	if err != nil {
		return report, err
	}
	report.Fetched = len(papers)
	p.info("fetched papers", "count", report.Fetched)

	matched := filter.Apply(papers, p.keywords)
	report.Matched = len(matched)
	p.info("matched papers", "count", report.Matched)

	if len(matched) == 0 {
		p.info("no papers matched, skipping delivery")
		return report, nil
	}

	summarized := p.summarizeAll(ctx, matched, &report)

	body := digest.Render(summarized, digest.Options{
		Date:            now,
		IncludeAbstract: p.includeAbstract,
	})

	if p.dryRun {
		p.info("dry run, skipping delivery", "preview", previewOf(summarized))
		return report, nil
	}

	for _, deliverer := range p.deliverers {
		result := deliverer.Deliver(ctx, body, now)
		report.Deliveries = append(report.Deliveries, result)
		if result.OK() {
			p.info("digest delivered", "channel", result.Channel, "target", result.Target)
		} else {
			p.warn("delivery failed", "channel", result.Channel, "error", result.Err)
		}
	}

	return report, nil
}

// summarizeAll processes papers one at a time; a failure on one paper never
// blocks the rest of the batch.
func (p *Pipeline) summarizeAll(ctx context.Context, papers []domain.Paper, report *Report) []domain.SummarizedPaper {
	summarized := make([]domain.SummarizedPaper, 0, len(papers))

	for _, paper := range papers {
		sp := domain.SummarizedPaper{Paper: paper}

		if p.summarizer == nil {
			sp.Err = fmt.Errorf("summarizer not configured")
		} else if summary, err := p.summarizer.Summarize(ctx, paper); err != nil {
			sp.Err = err
		} else {
			sp.Summary = summary
		}

		if sp.Err != nil {
			report.SummaryFailures++
			p.warn("summary failed", "paper", paper.ID, "error", sp.Err)
		} else {
			report.Summarized++
		}

		summarized = append(summarized, sp)
	}

	return summarized
}

func previewOf(papers []domain.SummarizedPaper) string {
	if len(papers) == 0 {
		return ""
	}
	return papers[0].Paper.Title
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
