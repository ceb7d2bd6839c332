package parser

import (
	"context"
	"log/slog"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/scanner"
)

// StrategySource implements PaperSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	cfg      config.ArxivConfig
	logger   *slog.Logger
}

var _ ports.PaperSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured strategy.
func NewStrategySource(reg *scanner.Registry, cfg config.ArxivConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		cfg:      cfg,
		logger:   log,
	}
}

// FetchRecent resolves the configured scanner and executes it against the
// trailing publication window ending at now.
func (s *StrategySource) FetchRecent(ctx context.Context, now time.Time) ([]domain.Paper, error) {
	strategy, err := s.registry.Resolve(s.cfg.Source)
	if err != nil {
		return nil, &domain.FetchError{Source: s.cfg.Source, Err: err}
	}

	req := scanner.Request{
		Now:        now,
		Window:     time.Duration(s.cfg.TimeWindowHours) * time.Hour,
		MaxResults: s.cfg.MaxResults,
		Categories: s.cfg.Categories,
	}

	s.debug("fetch recent",
		"scanner", s.cfg.Source,
		"categories", len(s.cfg.Categories),
		"window_hours", s.cfg.TimeWindowHours)

	papers, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, err
	}

	s.debug("scanner produced papers", "scanner", s.cfg.Source, "count", len(papers))
	return papers, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
