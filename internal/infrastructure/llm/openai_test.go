package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
)

func testPaper() domain.Paper {
	return domain.Paper{
		ID:       "2501.00001",
		Title:    "Dislocation mobility from molecular dynamics",
		Abstract: "We compute dislocation mobilities in BCC iron.",
		Authors:  []string{"Smith, J.", "Doe, A.", "Johnson, B.", "Brown, C."},
	}
}

func newTestClient(endpoint string) *OpenAIClient {
	c := NewOpenAIClient(config.OpenAIConfig{
		Endpoint:    endpoint,
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		MaxTokens:   150,
		Temperature: 0.3,
	})
	c.retryDelay = 0
	return c
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %s", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		if body["max_tokens"] != float64(150) {
			t.Errorf("unexpected max_tokens: %v", body["max_tokens"])
		}
		if body["temperature"] != 0.3 {
			t.Errorf("unexpected temperature: %v", body["temperature"])
		}

		messages, _ := body["messages"].([]any)
		if len(messages) != 2 {
			t.Fatalf("expected system and user messages, got %d", len(messages))
		}
		user, _ := messages[1].(map[string]any)
		content, _ := user["content"].(string)
		if !strings.Contains(content, "Dislocation mobility") {
			t.Errorf("prompt missing title: %s", content)
		}
		if !strings.Contains(content, "et al.") {
			t.Errorf("prompt must truncate long author lists: %s", content)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  A concise summary.  "}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	summary, err := client.Summarize(context.Background(), testPaper())
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if summary != "A concise summary." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestSummarizeRetriesOnRateLimit(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "Recovered."}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	summary, err := client.Summarize(context.Background(), testPaper())
	if err != nil {
		t.Fatalf("Summarize error after retry: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", attempts)
	}
	if summary != "Recovered." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestSummarizeAuthFailure(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Summarize(context.Background(), testPaper())
	if err == nil {
		t.Fatal("expected an error for auth failure")
	}
	if attempts != 1 {
		t.Fatalf("auth failures must not be retried, got %d attempts", attempts)
	}

	var summaryErr *domain.SummaryError
	if !errors.As(err, &summaryErr) {
		t.Fatalf("expected SummaryError, got %T: %v", err, err)
	}
	if summaryErr.PaperID != "2501.00001" {
		t.Fatalf("unexpected paper id in error: %s", summaryErr.PaperID)
	}
}

func TestSummarizeMissingAPIKey(t *testing.T) {
	t.Parallel()

	client := NewOpenAIClient(config.OpenAIConfig{
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Model:    "gpt-4o-mini",
	})

	_, err := client.Summarize(context.Background(), testPaper())
	var summaryErr *domain.SummaryError
	if !errors.As(err, &summaryErr) {
		t.Fatalf("expected SummaryError for missing key, got %v", err)
	}
}

func TestSummarizeMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Summarize(context.Background(), testPaper())
	var summaryErr *domain.SummaryError
	if !errors.As(err, &summaryErr) {
		t.Fatalf("expected SummaryError for empty choices, got %v", err)
	}
}
