package ports

import (
	"context"
	"time"

	"ArxivDigest/internal/domain"
)

// PaperSource pulls recent papers from upstream providers.
type PaperSource interface {
	FetchRecent(ctx context.Context, now time.Time) ([]domain.Paper, error)
}

// Summarizer generates a short summary for a single paper.
type Summarizer interface {
	Summarize(ctx context.Context, paper domain.Paper) (string, error)
}

// Deliverer pushes a rendered digest out on one channel.
type Deliverer interface {
	Channel() domain.DeliveryChannel
	Deliver(ctx context.Context, digest string, date time.Time) domain.DeliveryResult
}

// Scheduler controls when pipeline runs execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
