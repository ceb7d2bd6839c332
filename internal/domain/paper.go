package domain

import "time"

// Paper is a core entity describing metadata fetched from arXiv.
type Paper struct {
	ID          string
	Title       string
	Abstract    string
	Authors     []string
	URL         string
	PDFURL      string
	Categories  []string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// SummarizedPaper pairs a paper with its generated summary. Err is set when
// summarization failed; the paper still flows into the digest with a placeholder.
type SummarizedPaper struct {
	Paper   Paper
	Summary string
	Err     error
}

// DeliveryChannel enumerates the outbound paths of a digest.
type DeliveryChannel string

const (
	ChannelFile  DeliveryChannel = "file"
	ChannelEmail DeliveryChannel = "email"
)

// DeliveryResult records the outcome of one delivery path.
type DeliveryResult struct {
	Channel DeliveryChannel
	Target  string
	Err     error
}

// OK reports whether the delivery succeeded.
func (r DeliveryResult) OK() bool {
	return r.Err == nil
}
