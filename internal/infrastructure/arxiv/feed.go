package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

const defaultBaseURL = "https://export.arxiv.org/api/query"

// FeedScanner queries the arXiv Atom API for recently submitted papers.
type FeedScanner struct {
	client   *http.Client
	baseURL  string
	pageSize int
	logger   *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires an HTTP client; pageSize defaults to 100.
func NewFeedScanner(client *http.Client, logger *slog.Logger) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedScanner{
		client:   client,
		baseURL:  defaultBaseURL,
		pageSize: 100,
		logger:   logger,
	}
}

// Name identifies the strategy inside the registry.
func (s *FeedScanner) Name() string {
	return "api"
}

// Scan pages through the feed until entries fall outside the publication
// window or the result cap is reached. Results are deduplicated by ID and
// ordered by publication time descending.
func (s *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if req.Window <= 0 {
		return nil, nil
	}
	if len(req.Categories) == 0 {
		return nil, &domain.FetchError{Source: "arxiv-api", Err: fmt.Errorf("no categories configured")}
	}

	cutoff := req.Cutoff()
	query := buildSearchQuery(req.Categories)
	seen := map[string]struct{}{}
	results := make([]domain.Paper, 0, req.MaxResults)

	for start := 0; ; start += s.pageSize {
		pageURL := s.buildPageURL(query, start)
		s.debug("fetch page", "url", pageURL)

		feed, err := s.fetchFeed(ctx, pageURL)
		if err != nil {
			return nil, &domain.FetchError{Source: "arxiv-api", Err: err}
		}

		if len(feed.Entries) == 0 {
			break
		}

		reachedCutoff := false
		for _, entry := range feed.Entries {
			paper, err := parseEntry(entry)
			if err != nil {
				s.debug("skip entry", "error", err)
				continue
			}

			// The feed is sorted by submission date descending, so the
			// first entry behind the cutoff ends the scan.
			if paper.PublishedAt.Before(cutoff) {
				reachedCutoff = true
				break
			}
			if paper.PublishedAt.After(req.Now) {
				continue
			}
			if _, ok := seen[paper.ID]; ok {
				continue
			}
			seen[paper.ID] = struct{}{}
			results = append(results, paper)

			if req.MaxResults > 0 && len(results) >= req.MaxResults {
				reachedCutoff = true
				break
			}
		}

		if reachedCutoff || len(feed.Entries) < s.pageSize {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PublishedAt.After(results[j].PublishedAt)
	})

	return results, nil
}

// fetchFeed performs the GET with at most one immediate retry on transport
// errors and 5xx responses, honoring Retry-After when present.
func (s *FeedScanner) fetchFeed(ctx context.Context, pageURL string) (*atomFeed, error) {
	feed, retryable, err := s.fetchFeedOnce(ctx, pageURL)
	if err == nil || !retryable {
		return feed, err
	}

	s.debug("retrying after transient failure", "error", err)
	feed, _, err = s.fetchFeedOnce(ctx, pageURL)
	return feed, err
}

func (s *FeedScanner) fetchFeedOnce(ctx context.Context, pageURL string) (*atomFeed, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ArxivDigest/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		waitRetryAfter(resp.Header.Get("Retry-After"))
		return nil, true, fmt.Errorf("arxiv returned %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read feed: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, false, fmt.Errorf("parse feed xml: %w", err)
	}

	return &feed, false, nil
}

func waitRetryAfter(header string) {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 || seconds > 30 {
		return
	}
	time.Sleep(time.Duration(seconds) * time.Second)
}

func (s *FeedScanner) buildPageURL(query string, start int) string {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(s.pageSize))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	return s.baseURL + "?" + params.Encode()
}

// buildSearchQuery produces a keyword-free category query; keyword selection
// happens locally in the filter package.
func buildSearchQuery(categories []string) string {
	terms := make([]string, 0, len(categories))
	for _, cat := range categories {
		terms = append(terms, "cat:"+cat)
	}
	return strings.Join(terms, " OR ")
}

// Atom feed structures for the arXiv API.

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Links      []atomLink     `xml:"link"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

func parseEntry(entry atomEntry) (domain.Paper, error) {
	id := entry.ID
	if idx := strings.LastIndex(id, "/abs/"); idx >= 0 {
		id = id[idx+len("/abs/"):]
	}
	if id == "" {
		return domain.Paper{}, fmt.Errorf("entry without id")
	}

	published, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published))
	if err != nil {
		return domain.Paper{}, fmt.Errorf("entry %s: parse published: %w", id, err)
	}
	updated, _ := time.Parse(time.RFC3339, strings.TrimSpace(entry.Updated))

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		categories = append(categories, c.Term)
	}

	var pdfURL string
	for _, link := range entry.Links {
		if link.Title == "pdf" {
			pdfURL = link.Href
			break
		}
	}

	return domain.Paper{
		ID:          id,
		Title:       collapseWhitespace(entry.Title),
		Abstract:    collapseWhitespace(entry.Summary),
		Authors:     authors,
		URL:         entry.ID,
		PDFURL:      pdfURL,
		Categories:  categories,
		PublishedAt: published.UTC(),
		UpdatedAt:   updated.UTC(),
	}, nil
}

// collapseWhitespace normalizes the line-wrapped text arXiv emits in titles
// and abstracts.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *FeedScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
