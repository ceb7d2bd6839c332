package scanner

import (
	"context"
	"fmt"
	"time"

	"ArxivDigest/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	Now        time.Time
	Window     time.Duration
	MaxResults int
	Categories []string
}

// Cutoff returns the lower bound of the publication window.
func (r Request) Cutoff() time.Time {
	return r.Now.Add(-r.Window)
}

// Scanner captures a single fetch strategy (Atom API, listing pages, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Paper, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
