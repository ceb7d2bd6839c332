package domain

import "fmt"

// FetchError reports a failure talking to arXiv (network or parse).
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SummaryError reports a per-paper summarization failure. It is never fatal to
// the batch.
type SummaryError struct {
	PaperID string
	Err     error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summarize %s: %v", e.PaperID, e.Err)
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}

// DeliveryError reports a failure on a single delivery path.
type DeliveryError struct {
	Channel DeliveryChannel
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
