package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const systemPrompt = "You are a materials science researcher. Summarize " +
	"academic papers concisely, focusing on key findings, methods, and " +
	"significance. Keep summaries under 100 words."

// OpenAIClient implements ports.Summarizer backed by OpenAI-compatible
// chat-completion APIs.
type OpenAIClient struct {
	endpoint    string
	model       string
	apiKey      string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	retryDelay  time.Duration
}

var _ ports.Summarizer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryDelay: 2 * time.Second,
	}
}

// Summarize posts the paper prompt and returns the generated text. Errors are
// wrapped in SummaryError so callers can keep the batch going.
func (c *OpenAIClient) Summarize(ctx context.Context, paper domain.Paper) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", &domain.SummaryError{PaperID: paper.ID, Err: fmt.Errorf("summarizer misconfigured: missing api key, endpoint, or model")}
	}

	summary, retryable, err := c.complete(ctx, paper)
	if err != nil && retryable {
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return "", &domain.SummaryError{PaperID: paper.ID, Err: ctx.Err()}
		}
		summary, _, err = c.complete(ctx, paper)
	}
	if err != nil {
		return "", &domain.SummaryError{PaperID: paper.ID, Err: err}
	}

	return summary, nil
}

func (c *OpenAIClient) complete(ctx context.Context, paper domain.Paper) (string, bool, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(paper)},
		},
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	})
	if err != nil {
		return "", false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", true, fmt.Errorf("api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", false, fmt.Errorf("api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", false, fmt.Errorf("no choices in response")
	}

	summary := strings.TrimSpace(completion.Choices[0].Message.Content)
	if summary == "" {
		return "", false, fmt.Errorf("empty completion")
	}

	return summary, false, nil
}

// buildPrompt formats title, truncated author list, and abstract into the
// summarization request.
func buildPrompt(paper domain.Paper) string {
	authors := paper.Authors
	truncated := false
	if len(authors) > 3 {
		authors = authors[:3]
		truncated = true
	}
	authorsStr := strings.Join(authors, ", ")
	if truncated {
		authorsStr += " et al."
	}

	return fmt.Sprintf(`Title: %s

Authors: %s

Abstract: %s

Please provide a concise summary (2-3 sentences) highlighting:
1. What problem/question the paper addresses
2. The main approach or method used
3. Key findings or contributions

Keep it accessible to materials science researchers.`, paper.Title, authorsStr, paper.Abstract)
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
