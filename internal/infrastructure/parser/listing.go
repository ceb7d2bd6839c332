package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

const (
	arxivBaseURL   = "https://arxiv.org"
	defaultListURL = "https://export.arxiv.org/list"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ListingScanner crawls arXiv category listing pages. It is a fallback for
// the Atom API scanner; listing dates only carry day resolution.
type ListingScanner struct {
	client   *http.Client
	baseURL  string
	pageSize int
	logger   *slog.Logger
}

var _ scanner.Scanner = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client; pageSize defaults to 200.
func NewListingScanner(client *http.Client, logger *slog.Logger) *ListingScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ListingScanner{
		client:   client,
		baseURL:  defaultListURL,
		pageSize: 200,
		logger:   logger,
	}
}

// Name identifies the strategy inside the registry.
func (s *ListingScanner) Name() string {
	return "listing"
}

// Scan walks each category's recent listing and returns papers published
// within the window, deduplicated by ID and ordered by date descending.
func (s *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if req.Window <= 0 {
		return nil, nil
	}
	if len(req.Categories) == 0 {
		return nil, &domain.FetchError{Source: "arxiv-listing", Err: fmt.Errorf("no categories configured")}
	}

	cutoffDay := req.Cutoff().UTC().Truncate(24 * time.Hour)
	seen := map[string]struct{}{}
	results := make([]domain.Paper, 0)

scan:
	for _, cat := range req.Categories {
		skip := 0
		for {
			pageURL, err := buildPageURL(s.baseURL+"/"+cat+"/recent", skip, s.pageSize)
			if err != nil {
				return nil, &domain.FetchError{Source: "arxiv-listing", Err: fmt.Errorf("category %s: %w", cat, err)}
			}

			doc, err := s.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, &domain.FetchError{Source: "arxiv-listing", Err: fmt.Errorf("category %s: %w", cat, err)}
			}

			papers, shouldContinue := s.extractPapers(doc, cutoffDay, cat)
			for _, paper := range papers {
				if _, ok := seen[paper.ID]; ok {
					continue
				}
				seen[paper.ID] = struct{}{}
				results = append(results, paper)
			}

			if req.MaxResults > 0 && len(results) >= req.MaxResults {
				results = results[:req.MaxResults]
				break scan
			}

			if !shouldContinue {
				break
			}
			skip += s.pageSize
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PublishedAt.After(results[j].PublishedAt)
	})

	return results, nil
}

func (s *ListingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ArxivDigest/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *ListingScanner) extractPapers(doc *goquery.Document, cutoffDay time.Time, category string) ([]domain.Paper, bool) {
	var (
		collected    []domain.Paper
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		paper, err := parseListingEntry(dt, dd, category)
		if err != nil {
			s.debug("skip listing entry", "error", err)
			return true
		}

		paperDay := paper.PublishedAt.UTC().Truncate(24 * time.Hour)
		if paperDay.Before(cutoffDay) {
			continueScan = false
			return false
		}
		collected = append(collected, paper)

		return true
	})

	if processed < s.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseListingEntry(dt, dd *goquery.Selection, category string) (domain.Paper, error) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	id := strings.TrimSpace(link.Text())
	id = strings.TrimPrefix(id, "arXiv:")
	if id == "" {
		id = strings.TrimPrefix(href, arxivBaseURL+"/abs/")
	}
	if id == "" {
		return domain.Paper{}, fmt.Errorf("listing entry without identifier")
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := dd.Find("p.mathjax").First().Text()
	abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(i int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed.UTC()
		}
	}

	return domain.Paper{
		ID:          id,
		Title:       title,
		Abstract:    abstract,
		Authors:     authors,
		URL:         href,
		Categories:  []string{category},
		PublishedAt: publishedAt,
	}, nil
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (s *ListingScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
