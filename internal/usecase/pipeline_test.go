package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

type fakeSource struct {
	papers []domain.Paper
	err    error
}

func (f *fakeSource) FetchRecent(_ context.Context, _ time.Time) ([]domain.Paper, error) {
	return f.papers, f.err
}

type fakeSummarizer struct {
	failFor map[string]bool
	calls   []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, paper domain.Paper) (string, error) {
	f.calls = append(f.calls, paper.ID)
	if f.failFor[paper.ID] {
		return "", &domain.SummaryError{PaperID: paper.ID, Err: errors.New("rate limited")}
	}
	return "Summary of " + paper.ID, nil
}

type fakeDeliverer struct {
	channel domain.DeliveryChannel
	err     error
	digest  string
	calls   int
}

func (f *fakeDeliverer) Channel() domain.DeliveryChannel {
	return f.channel
}

func (f *fakeDeliverer) Deliver(_ context.Context, digest string, _ time.Time) domain.DeliveryResult {
	f.calls++
	f.digest = digest
	return domain.DeliveryResult{Channel: f.channel, Err: f.err}
}

func testPapers() []domain.Paper {
	published := time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC)
	return []domain.Paper{
		{
			ID:          "2501.00001",
			Title:       "Dislocation glide from molecular dynamics",
			Abstract:    "Atomistic view of dislocation motion.",
			Authors:     []string{"Smith, J."},
			URL:         "http://arxiv.org/abs/2501.00001",
			PublishedAt: published,
		},
		{
			ID:          "2501.00002",
			Title:       "Quantum error correction codes",
			Abstract:    "Nothing about materials here.",
			Authors:     []string{"Doe, A."},
			URL:         "http://arxiv.org/abs/2501.00002",
			PublishedAt: published.Add(-time.Hour),
		},
		{
			ID:          "2501.00003",
			Title:       "Molecular dynamics of dislocation nucleation",
			Abstract:    "More dislocations.",
			Authors:     []string{"Brown, C."},
			URL:         "http://arxiv.org/abs/2501.00003",
			PublishedAt: published.Add(-2 * time.Hour),
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	// Three fetched, two match the group, one summary fails; file delivery
	// succeeds while email delivery reports an auth failure.
	source := &fakeSource{papers: testPapers()}
	summarizer := &fakeSummarizer{failFor: map[string]bool{"2501.00003": true}}
	file := &fakeDeliverer{channel: domain.ChannelFile}
	mail := &fakeDeliverer{
		channel: domain.ChannelEmail,
		err:     &domain.DeliveryError{Channel: domain.ChannelEmail, Err: errors.New("auth failed")},
	}

	pipeline := NewPipeline(PipelineDeps{
		Source:     source,
		Summarizer: summarizer,
		Deliverers: []ports.Deliverer{file, mail},
		Keywords: [][]string{{"dislocation", "molecular dynamics"}},
	})

	now := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)
	report, err := pipeline.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if report.Fetched != 3 || report.Matched != 2 {
		t.Fatalf("unexpected counts: fetched=%d matched=%d", report.Fetched, report.Matched)
	}
	if report.Summarized != 1 || report.SummaryFailures != 1 {
		t.Fatalf("unexpected summary counts: ok=%d failed=%d", report.Summarized, report.SummaryFailures)
	}

	if file.calls != 1 {
		t.Fatal("file delivery must run despite email failure")
	}
	if !strings.Contains(file.digest, "2 papers matched") {
		t.Fatalf("digest must contain exactly the matched papers:\n%s", file.digest)
	}
	if !strings.Contains(file.digest, "Summary of 2501.00001") {
		t.Fatalf("digest missing real summary:\n%s", file.digest)
	}
	if !strings.Contains(file.digest, "Summary unavailable") {
		t.Fatalf("digest missing placeholder for failed summary:\n%s", file.digest)
	}
	if strings.Contains(file.digest, "Quantum error correction") {
		t.Fatalf("non-matching paper leaked into digest:\n%s", file.digest)
	}

	if report.Delivered() != 1 {
		t.Fatalf("expected one successful delivery, got %d", report.Delivered())
	}
	if report.FullFailure() {
		t.Fatal("partial success must not count as full failure")
	}
}

func TestRunFetchErrorAborts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: &domain.FetchError{Source: "arxiv-api", Err: errors.New("boom")}}
	pipeline := NewPipeline(PipelineDeps{
		Source:   source,
		Keywords: [][]string{{"anything"}},
	})

	report, err := pipeline.Run(context.Background(), time.Now())

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !report.FullFailure() {
		t.Fatal("failed fetch with no deliveries is a full failure")
	}
}

func TestRunNoMatchesSkipsDelivery(t *testing.T) {
	t.Parallel()

	file := &fakeDeliverer{channel: domain.ChannelFile}
	pipeline := NewPipeline(PipelineDeps{
		Source: &fakeSource{papers: testPapers()},
		Deliverers: []ports.Deliverer{file},
		Keywords: [][]string{{"no such keyword anywhere"}},
	})

	report, err := pipeline.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Matched != 0 {
		t.Fatalf("expected zero matches, got %d", report.Matched)
	}
	if file.calls != 0 {
		t.Fatal("delivery must be skipped when nothing matched")
	}
	if report.FullFailure() {
		t.Fatal("a run that fetched papers is not a full failure")
	}
}

func TestSummaryFailureIsolation(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{failFor: map[string]bool{"2501.00001": true}}
	file := &fakeDeliverer{channel: domain.ChannelFile}
	pipeline := NewPipeline(PipelineDeps{
		Source:     &fakeSource{papers: testPapers()},
		Summarizer: summarizer,
		Deliverers: []ports.Deliverer{file},
		Keywords: [][]string{{"dislocation"}},
	})

	_, err := pipeline.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(summarizer.calls) != 2 {
		t.Fatalf("all matched papers must be summarized, got calls for %v", summarizer.calls)
	}
	if fmt.Sprint(summarizer.calls) != "[2501.00001 2501.00003]" {
		t.Fatalf("unexpected summarization order: %v", summarizer.calls)
	}
	if !strings.Contains(file.digest, "Summary of 2501.00003") {
		t.Fatalf("later paper must still receive a summary:\n%s", file.digest)
	}
}

func TestRunDryRun(t *testing.T) {
	t.Parallel()

	file := &fakeDeliverer{channel: domain.ChannelFile}
	pipeline := NewPipeline(PipelineDeps{
		Source:     &fakeSource{papers: testPapers()},
		Summarizer: &fakeSummarizer{},
		Deliverers: []ports.Deliverer{file},
		Keywords: [][]string{{"dislocation"}},
		DryRun:   true,
	})

	report, err := pipeline.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if file.calls != 0 {
		t.Fatal("dry run must not deliver")
	}
	if report.Matched == 0 {
		t.Fatal("dry run must still fetch and filter")
	}
}

func TestRunNoSummarizerUsesPlaceholder(t *testing.T) {
	t.Parallel()

	file := &fakeDeliverer{channel: domain.ChannelFile}
	pipeline := NewPipeline(PipelineDeps{
		Source: &fakeSource{papers: testPapers()},
		Deliverers: []ports.Deliverer{file},
		Keywords: [][]string{{"dislocation"}},
	})

	report, err := pipeline.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.SummaryFailures != report.Matched {
		t.Fatalf("missing summarizer must downgrade every summary, got %d of %d", report.SummaryFailures, report.Matched)
	}
	if !strings.Contains(file.digest, "Summary unavailable") {
		t.Fatalf("digest missing placeholders:\n%s", file.digest)
	}
}
