package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// FileWriter delivers the digest by writing it to a local file.
type FileWriter struct {
	path string
}

var _ ports.Deliverer = (*FileWriter)(nil)

// NewFileWriter targets the configured output path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Channel identifies the delivery path.
func (f *FileWriter) Channel() domain.DeliveryChannel {
	return domain.ChannelFile
}

// Deliver writes the digest, replacing any previous run's output.
func (f *FileWriter) Deliver(_ context.Context, digest string, _ time.Time) domain.DeliveryResult {
	result := domain.DeliveryResult{Channel: domain.ChannelFile, Target: f.path}

	if f.path == "" {
		result.Err = &domain.DeliveryError{Channel: domain.ChannelFile, Err: fmt.Errorf("no output file configured")}
		return result
	}

	if err := os.WriteFile(f.path, []byte(digest), 0o644); err != nil {
		result.Err = &domain.DeliveryError{Channel: domain.ChannelFile, Err: err}
	}

	return result
}
